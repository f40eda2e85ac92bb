package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
)

// ErrMailerNotConfigured is wrapped in a DeliveryError when no transport is set.
var ErrMailerNotConfigured = errors.New("mail service not initialized")

// Alert kinds.
const (
	KindAQI       = "aqi"
	KindPollutant = "pollutant"
)

// DeliveryError reports a message that could not be sent.
type DeliveryError struct {
	Recipient string
	Kind      string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s alert to %s: %v", e.Kind, e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Exceedance is one pollutant at or above its threshold.
type Exceedance struct {
	Pollutant airquality.Pollutant
	Value     float64
	Threshold float64
}

// Line renders the exceedance as it appears in the pollutant alert body.
func (e Exceedance) Line() string {
	return fmt.Sprintf("%s: %s µg/m³ (threshold: %s)", e.Pollutant.Label(), formatNumber(e.Value), formatNumber(e.Threshold))
}

// NotifierConfig holds the dependencies of Notifier.
type NotifierConfig struct {
	// Mailer may be nil; every send then fails with ErrMailerNotConfigured.
	Mailer Mailer
	Logger zerolog.Logger
}

// Notifier formats and sends alert emails.
type Notifier struct {
	mailer Mailer
	logger zerolog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(cfg NotifierConfig) *Notifier {
	return &Notifier{mailer: cfg.Mailer, logger: cfg.Logger}
}

// Configured reports whether a transport is set.
func (n *Notifier) Configured() bool {
	return n.mailer != nil
}

var aqiAlertTemplate = template.Must(template.New("aqi").Parse(`Air Quality Alert

Location: {{.Location}}
AQI: {{.AQI}} – {{.Label}}

Pollutant Breakdown:
{{- range .Pollutants}}
  {{.Label}} : {{.Value}} µg/m³
{{- end}}

Please take necessary precautions.

-- Air Quality Monitor
`))

var pollutantAlertTemplate = template.Must(template.New("pollutant").Parse(`The following pollutants have exceeded your thresholds:

{{range $i, $line := .Lines}}{{if $i}}
{{end}}  • {{$line}}{{end}}

-- Air Quality Monitor
`))

type pollutantRow struct {
	Label string
	Value string
}

// SendAQIAlert sends the overall-AQI alert for reading.
func (n *Notifier) SendAQIAlert(ctx context.Context, email, location string, aqi int, reading *airquality.Reading) error {
	level := airquality.Classify(aqi)

	rows := make([]pollutantRow, 0, len(airquality.Pollutants))
	for _, p := range airquality.Pollutants {
		value := "N/A"
		if reading != nil {
			if v, ok := reading.Value(p); ok {
				value = formatNumber(v)
			}
		}
		rows = append(rows, pollutantRow{Label: fmt.Sprintf("%-5s", p.Label()), Value: value})
	}

	var body bytes.Buffer
	err := aqiAlertTemplate.Execute(&body, struct {
		Location   string
		AQI        int
		Label      string
		Pollutants []pollutantRow
	}{location, aqi, level.Label, rows})
	if err != nil {
		return &DeliveryError{Recipient: email, Kind: KindAQI, Err: err}
	}

	return n.send(ctx, KindAQI, Message{
		To:      email,
		Subject: fmt.Sprintf("⚠️ Air Quality Alert for %s – AQI %d (%s)", location, aqi, level.Label),
		Body:    body.String(),
	})
}

// SendPollutantAlert sends one combined alert listing every exceedance.
func (n *Notifier) SendPollutantAlert(ctx context.Context, email, location string, exceeded []Exceedance) error {
	lines := make([]string, 0, len(exceeded))
	for _, e := range exceeded {
		lines = append(lines, e.Line())
	}

	var body bytes.Buffer
	if err := pollutantAlertTemplate.Execute(&body, struct{ Lines []string }{lines}); err != nil {
		return &DeliveryError{Recipient: email, Kind: KindPollutant, Err: err}
	}

	return n.send(ctx, KindPollutant, Message{
		To:      email,
		Subject: fmt.Sprintf("⚠️ Pollutant Alert for %s", location),
		Body:    body.String(),
	})
}

func (n *Notifier) send(ctx context.Context, kind string, msg Message) error {
	if n.mailer == nil {
		return &DeliveryError{Recipient: msg.To, Kind: kind, Err: ErrMailerNotConfigured}
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return &DeliveryError{Recipient: msg.To, Kind: kind, Err: err}
	}
	n.logger.Info().Str("recipient", msg.To).Str("kind", kind).Msg("alert sent")
	return nil
}

// formatNumber prints whole numbers with one decimal and others in their
// shortest form, so 120 reads "120.0" and 55.46 reads "55.46".
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
