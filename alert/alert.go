// Package alert emails a summary whenever the filter reports a weight
// collapse, batching messages the way the teacher's metrics monitor
// batches its queue between periodic sends.
package alert

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/MrProteus/pfuclt-omni-dataset"
)

const maxMessageLen = 4096

// Mailer batches OnWeightCollapse notifications and flushes them to a
// single recipient on a fixed interval. It implements
// pfuclt.WeightCollapseObserver; OnIterationComplete is a no-op so it
// can also be registered as a plain pfuclt.Observer.
type Mailer struct {
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassphrase string
	To             string

	mu    sync.Mutex
	queue []string
}

var _ pfuclt.Observer = (*Mailer)(nil)
var _ pfuclt.WeightCollapseObserver = (*Mailer)(nil)

// OnIterationComplete satisfies pfuclt.Observer; Mailer only reacts to
// weight-collapse events.
func (m *Mailer) OnIterationComplete(pfuclt.Snapshot) {}

// OnWeightCollapse queues a message for the next Flush.
func (m *Mailer) OnWeightCollapse(which string) {
	msg := fmt.Sprintf("%s: weight collapse recovered for %q", time.Now().Format(time.RFC3339), which)
	if len(msg) > maxMessageLen {
		log.Warnf("alert: dropping oversized message (%d bytes)", len(msg))
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()
}

// Flush drains the queue into one HTML email and sends it. A call with
// an empty queue is a no-op.
func (m *Mailer) Flush() error {
	m.mu.Lock()
	pending := m.queue
	m.queue = nil
	m.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("Weight collapse events:<br><ol>")
	for _, p := range pending {
		buf.WriteString(fmt.Sprintf("<li>%s</li>\n", p))
	}
	buf.WriteString("</ol>")

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.SMTPUser)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", "pfuclt weight collapse report "+time.Now().Format(time.RFC3339))
	msg.SetBody("text/html", buf.String())

	d := gomail.NewDialer(m.SMTPHost, m.SMTPPort, m.SMTPUser, m.SMTPPassphrase)
	if err := d.DialAndSend(msg); err != nil {
		log.Errorf("alert: failed to send collapse report: %v", err)
		return err
	}
	log.Infof("alert: sent collapse report with %d event(s)", len(pending))
	return nil
}

// Run flushes on every tick until stop is closed.
func (m *Mailer) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.Flush(); err != nil {
				log.Warnf("alert: flush failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}
