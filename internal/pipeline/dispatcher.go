package pipeline

import (
	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/metrics"
)

// AlertMessage pairs a triggered alert with its vehicle for fan-out.
type AlertMessage struct {
	VehicleID string
	Alert     domain.Alert
}

// Dispatcher fans accepted fixes out to the background writers. Sends
// never block the ingestion path; a full channel drops the message and
// bumps a counter.
type Dispatcher struct {
	ArchiveChan chan *domain.AcceptedFix
	MirrorChan  chan *domain.AcceptedFix
	AlertChan   chan *AlertMessage
}

func NewDispatcher(archiveSize, mirrorSize, alertSize int) *Dispatcher {
	return &Dispatcher{
		ArchiveChan: make(chan *domain.AcceptedFix, archiveSize),
		MirrorChan:  make(chan *domain.AcceptedFix, mirrorSize),
		AlertChan:   make(chan *AlertMessage, alertSize),
	}
}

func (d *Dispatcher) AcceptFix(af *domain.AcceptedFix) {
	select {
	case d.ArchiveChan <- af:
	default:
		metrics.ArchiveChannelDrops.Add(1)
	}

	select {
	case d.MirrorChan <- af:
	default:
		metrics.MirrorChannelDrops.Add(1)
	}
}

func (d *Dispatcher) AcceptAlert(vehicleID string, a domain.Alert) {
	select {
	case d.AlertChan <- &AlertMessage{VehicleID: vehicleID, Alert: a}:
	default:
		metrics.AlertChannelDrops.Add(1)
	}
}

// Close releases the channels so the workers drain and exit.
func (d *Dispatcher) Close() {
	close(d.ArchiveChan)
	close(d.MirrorChan)
	close(d.AlertChan)
}
