package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeAcceptsLiveSession(t *testing.T) {
	nav := &fakeNavigator{status: 200, body: []byte("ok")}
	prober := NewCookieProber(nav, "https://www.youtube.com/")

	valid, err := prober.Probe(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestProbeRedirectMeansInvalid(t *testing.T) {
	nav := &fakeNavigator{status: 302}
	prober := NewCookieProber(nav, "https://www.youtube.com/")

	valid, err := prober.Probe(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestProbeServerErrorIsInconclusive(t *testing.T) {
	nav := &fakeNavigator{status: 503}
	prober := NewCookieProber(nav, "https://www.youtube.com/")

	_, err := prober.Probe(context.Background(), nil)
	assert.Error(t, err)
}

func TestProbeTransportErrorIsInconclusive(t *testing.T) {
	nav := &fakeNavigator{err: errors.New("connection refused")}
	prober := NewCookieProber(nav, "https://www.youtube.com/")

	_, err := prober.Probe(context.Background(), nil)
	assert.Error(t, err)
}
