package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestRunUntilStopped_ServeFailureStopsBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	var stopped bool
	background := func(ctx context.Context) {
		<-ctx.Done()
		stopped = true
	}
	listenErr := errors.New("address already in use")

	err := runUntilStopped(context.Background(), background, func() error { return listenErr })

	assert.ErrorIs(t, err, listenErr)
	assert.True(t, stopped)
}

func TestRunUntilStopped_CancelStopsBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	var stopped bool
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := runUntilStopped(ctx, func(ctx context.Context) {
		<-ctx.Done()
		stopped = true
	}, func() error {
		<-release
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, stopped)
}
