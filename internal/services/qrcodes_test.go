package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/paulexconde/eventmatch/internal/pkg/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls []int64
	fail  map[int64]bool
}

func (r *fakeRenderer) Generate(eventID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, eventID)
	if r.fail[eventID] {
		return "", errors.New("disk full")
	}
	return fmt.Sprintf("qr_codes/qr_event_%d.png", eventID), nil
}

func TestQRCodeHookRendersNewEvents(t *testing.T) {
	f := newFixture(t)
	pool := workerpool.NewWorkerPool(context.Background(), nil, 2, 8)
	renderer := &fakeRenderer{}
	svc := NewQRCodeService(f.stores, renderer, pool, nil, nil)
	f.stores.Events.SetHooks(svc.Hooks())

	e := f.event(f.host().ID, nil)
	pool.Shutdown(context.Background())

	stored, err := f.stores.Events.GetByID(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("qr_codes/qr_event_%d.png", e.ID), stored.QRCode)
	// Storing the path is itself a save; it must not schedule another render.
	assert.Equal(t, []int64{e.ID}, renderer.calls)
}

func TestQRCodeRegenerate(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	a := f.event(host.ID, nil)
	b := f.event(host.ID, nil)
	c := f.event(host.ID, nil)

	renderer := &fakeRenderer{fail: map[int64]bool{c.ID: true}}
	svc := NewQRCodeService(f.stores, renderer, nil, nil, nil)

	_, err := svc.Generate(f.ctx, a.ID)
	require.NoError(t, err)
	renderer.calls = nil

	n, err := svc.Regenerate(f.ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{b.ID, c.ID}, renderer.calls)

	renderer.calls = nil
	n, err = svc.Regenerate(f.ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, renderer.calls)

	_, err = svc.Generate(f.ctx, c.ID)
	assert.Error(t, err)
}
