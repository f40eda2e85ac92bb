package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/worker"
)

func newProcessor(locations staticLocations, checker *fakeChecker) *worker.Processor {
	job := worker.NewAlertCheckJob(worker.AlertCheckJobConfig{
		Logger:    zerolog.Nop(),
		Locations: locations,
		Checker:   checker,
	})
	return worker.NewProcessor(job, zerolog.Nop())
}

func TestProcessor_AlertCheckSingleLocation(t *testing.T) {
	checker := &fakeChecker{}
	p := newProcessor(staticLocations{locations: []string{"London", "Paris"}}, checker)

	ack := p.Process(context.Background(), []byte(`{"job_type":"alert_check","location":" Berlin "}`))

	assert.True(t, ack)
	assert.Equal(t, []string{"Berlin"}, checker.Checked())
}

func TestProcessor_AlertCheckAllLocations(t *testing.T) {
	checker := &fakeChecker{}
	p := newProcessor(staticLocations{locations: []string{"London", "Paris"}}, checker)

	assert.True(t, p.Process(context.Background(), []byte(`{"job_type":"alert_check"}`)))
	assert.Equal(t, []string{"London", "Paris"}, checker.Checked())
}

func TestProcessor_MostlyFailingRunIsNacked(t *testing.T) {
	checker := &fakeChecker{failures: map[string]error{
		"London": errors.New("upstream"),
		"Paris":  errors.New("upstream"),
	}}
	p := newProcessor(staticLocations{locations: []string{"London", "Paris"}}, checker)

	assert.False(t, p.Process(context.Background(), []byte(`{"job_type":"alert_check"}`)))
}

func TestProcessor_UnknownLocationIsAcked(t *testing.T) {
	checker := &fakeChecker{failures: map[string]error{"Atlantis": airquality.ErrLocationNotFound}}
	p := newProcessor(staticLocations{}, checker)

	assert.True(t, p.Process(context.Background(), []byte(`{"job_type":"alert_check","location":"Atlantis"}`)))
}

func TestProcessor_UpstreamFailureIsNacked(t *testing.T) {
	checker := &fakeChecker{failures: map[string]error{"London": airquality.ErrProviderUnavailable}}
	p := newProcessor(staticLocations{}, checker)

	assert.False(t, p.Process(context.Background(), []byte(`{"job_type":"alert_check","location":"London"}`)))
}

func TestProcessor_HealthCheck(t *testing.T) {
	assert.True(t, newProcessor(staticLocations{}, &fakeChecker{}).
		Process(context.Background(), []byte(`{"job_type":"health_check"}`)))

	assert.False(t, newProcessor(staticLocations{err: errors.New("db down")}, &fakeChecker{}).
		Process(context.Background(), []byte(`{"job_type":"health_check"}`)))
}

func TestProcessor_UnknownJobTypeIsAcked(t *testing.T) {
	p := newProcessor(staticLocations{}, &fakeChecker{})
	assert.True(t, p.Process(context.Background(), []byte(`{"job_type":"provider_refresh"}`)))
}

func TestProcessor_MalformedMessageIsNacked(t *testing.T) {
	p := newProcessor(staticLocations{}, &fakeChecker{})
	assert.False(t, p.Process(context.Background(), []byte(`not json`)))
}
