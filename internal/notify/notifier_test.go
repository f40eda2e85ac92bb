package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/notify"
)

func TestNotifier_SendAQIAlert(t *testing.T) {
	mailer := &notify.MemoryMailer{}
	n := notify.NewNotifier(notify.NotifierConfig{Mailer: mailer, Logger: zerolog.Nop()})

	reading := &airquality.Reading{
		AQI:  175,
		PM25: airquality.Float(55.5),
		PM10: airquality.Float(120),
		NO2:  airquality.Float(45),
	}
	require.NoError(t, n.SendAQIAlert(context.Background(), "a@x.com", "London", 175, reading))

	msgs := mailer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a@x.com", msgs[0].To)
	assert.Equal(t, "⚠️ Air Quality Alert for London – AQI 175 (Unhealthy)", msgs[0].Subject)

	want := "Air Quality Alert\n\n" +
		"Location: London\n" +
		"AQI: 175 – Unhealthy\n\n" +
		"Pollutant Breakdown:\n" +
		"  PM2.5 : 55.5 µg/m³\n" +
		"  PM10  : 120.0 µg/m³\n" +
		"  CO    : N/A µg/m³\n" +
		"  NO₂   : 45.0 µg/m³\n" +
		"  O₃    : N/A µg/m³\n" +
		"  SO₂   : N/A µg/m³\n\n" +
		"Please take necessary precautions.\n\n" +
		"-- Air Quality Monitor\n"
	assert.Equal(t, want, msgs[0].Body)
}

func TestNotifier_SendPollutantAlert(t *testing.T) {
	mailer := &notify.MemoryMailer{}
	n := notify.NewNotifier(notify.NotifierConfig{Mailer: mailer, Logger: zerolog.Nop()})

	err := n.SendPollutantAlert(context.Background(), "a@x.com", "London", []notify.Exceedance{
		{Pollutant: airquality.PM25, Value: 55.5, Threshold: 35.4},
		{Pollutant: airquality.O3, Value: 120, Threshold: 100},
	})
	require.NoError(t, err)

	msgs := mailer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "⚠️ Pollutant Alert for London", msgs[0].Subject)
	assert.Equal(t,
		"The following pollutants have exceeded your thresholds:\n\n"+
			"  • PM2.5: 55.5 µg/m³ (threshold: 35.4)\n"+
			"  • O₃: 120.0 µg/m³ (threshold: 100.0)\n\n"+
			"-- Air Quality Monitor\n",
		msgs[0].Body)
}

func TestNotifier_NoMailer(t *testing.T) {
	n := notify.NewNotifier(notify.NotifierConfig{Logger: zerolog.Nop()})
	assert.False(t, n.Configured())

	err := n.SendAQIAlert(context.Background(), "a@x.com", "London", 175, nil)

	var derr *notify.DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "a@x.com", derr.Recipient)
	assert.Equal(t, notify.KindAQI, derr.Kind)
	assert.ErrorIs(t, err, notify.ErrMailerNotConfigured)
}

func TestNotifier_TransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	mailer := &notify.MemoryMailer{Fail: func(notify.Message) error { return boom }}
	n := notify.NewNotifier(notify.NotifierConfig{Mailer: mailer, Logger: zerolog.Nop()})

	err := n.SendPollutantAlert(context.Background(), "a@x.com", "London", nil)

	var derr *notify.DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, notify.KindPollutant, derr.Kind)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mailer.Messages())
}

func TestExceedance_Line(t *testing.T) {
	e := notify.Exceedance{Pollutant: airquality.NO2, Value: 101.25, Threshold: 100}
	assert.Equal(t, "NO₂: 101.25 µg/m³ (threshold: 100.0)", e.Line())
}
