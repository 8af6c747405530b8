// Package notify sends the Historic Environment Record (HER) a plaintext
// summary of every new submission, with the drawn polygon inlined as WKT and
// attached as a GeoJSON file when one can be derived. Delivery is best-effort
// by contract: nothing in here may fail the record creation that triggered
// it, so every error is logged and swallowed.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/wneessen/go-mail"

	"github.com/welshlidar/portal/api/internal/config"
	"github.com/welshlidar/portal/api/internal/export"
	"github.com/welshlidar/portal/api/internal/geometry"
	"github.com/welshlidar/portal/api/internal/logger"
	"github.com/welshlidar/portal/api/internal/models"
)

// HERMailer emails the HER about new record submissions.
type HERMailer struct {
	cfg     config.NotifyConfig
	baseURL string
	log     *logger.Logger
}

// NewHERMailer creates a new HERMailer.
func NewHERMailer(cfg config.NotifyConfig, baseURL string, log *logger.Logger) *HERMailer {
	return &HERMailer{
		cfg:     cfg,
		baseURL: baseURL,
		log:     log,
	}
}

// NotifyRecordCreated builds and sends the submission email. A no-op when no
// recipients are configured. Geometry derivation and SMTP delivery failures
// degrade gracefully: the email goes out without geometry, or not at all,
// and the caller never hears about it.
func (m *HERMailer) NotifyRecordCreated(ctx context.Context, record *models.Record) {
	if len(m.cfg.Recipients) == 0 {
		return
	}

	recordURL := fmt.Sprintf("%s/record/%d", strings.TrimRight(m.baseURL, "/"), record.ID)
	mapURL := fmt.Sprintf("%s/LidarPortal?recordId=%d", strings.TrimRight(m.baseURL, "/"), record.ID)

	poly, hasGeometry := geometry.PolygonLenient(record.PolygonCoordinate)

	subject := fmt.Sprintf("[New LiDAR Submission] %s (PRN: %s)", record.Title, prnDisplay(record.PRN))
	body := m.buildBody(record, poly, recordURL, mapURL)

	var attachment []byte
	if hasGeometry {
		data, err := export.RecordFeature(record, poly, m.baseURL, map[string]any{
			"record_url": recordURL,
			"map_url":    mapURL,
		})
		if err != nil {
			m.log.Error("Failed to build GeoJSON attachment", err, map[string]interface{}{
				"record_id": record.ID,
			})
		} else {
			attachment = data
		}
	} else {
		m.log.Warn("No geometry derivable for notification", map[string]interface{}{
			"record_id": record.ID,
		})
	}

	if err := m.send(ctx, record, subject, body, attachment); err != nil {
		m.log.Error("Failed to send HER notification", err, map[string]interface{}{
			"record_id":  record.ID,
			"recipients": len(m.cfg.Recipients),
		})
		return
	}

	m.log.Info("HER notification sent", map[string]interface{}{
		"record_id":  record.ID,
		"recipients": len(m.cfg.Recipients),
	})
}

func (m *HERMailer) buildBody(record *models.Record, poly orb.Polygon, recordURL, mapURL string) string {
	var b strings.Builder

	b.WriteString("New community submission on the Welsh LiDAR Portal\n\n")
	fmt.Fprintf(&b, "Title: %s\n", record.Title)
	fmt.Fprintf(&b, "PRN: %s\n", prnDisplay(record.PRN))
	fmt.Fprintf(&b, "Site type: %s\n", record.SiteType)
	fmt.Fprintf(&b, "Monument type: %s\n", record.MonumentType)
	fmt.Fprintf(&b, "Period: %s\n", record.Period)
	fmt.Fprintf(&b, "Recorded by: %s\n", record.RecordedByName)
	fmt.Fprintf(&b, "Date recorded: %s\n\n", record.DateRecorded.Format(models.DisplayDateFormat))
	fmt.Fprintf(&b, "Description:\n%s\n\n", record.Description)
	fmt.Fprintf(&b, "View on map: %s\n", mapURL)
	fmt.Fprintf(&b, "Record page: %s\n", recordURL)

	if poly != nil {
		b.WriteString("\nGeometry (WKT, EPSG:4326):\n")
		b.WriteString(geometry.WKT(poly[0]))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *HERMailer) send(ctx context.Context, record *models.Record, subject, body string, attachment []byte) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.cfg.Recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if attachment != nil {
		filename := fmt.Sprintf("record-%d.geojson", record.ID)
		if err := msg.AttachReader(filename, bytes.NewReader(attachment)); err != nil {
			// Send without the attachment rather than not at all.
			m.log.Error("Failed to attach GeoJSON", err, map[string]interface{}{
				"record_id": record.ID,
			})
		}
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.SMTPUser),
			mail.WithPassword(m.cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(m.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	return nil
}

func prnDisplay(prn *int) string {
	if prn == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *prn)
}
