package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linuxDevice() *FFmpegDevice {
	d := NewFFmpegDevice("ffmpeg", ":1.0", "default")
	d.goos = "linux"
	d.lookPath = func(string) (string, error) { return "/usr/bin/ffmpeg", nil }
	return d
}

func TestFFmpegSupports(t *testing.T) {
	d := linuxDevice()
	assert.True(t, d.Supports("video/webm;codecs=vp9,opus"))
	assert.True(t, d.Supports("video/webm;codecs=vp8,opus"))
	assert.True(t, d.Supports("video/webm"))
	assert.True(t, d.Supports("video/mp4"))
	assert.False(t, d.Supports("video/webm;codecs=av1"))
	assert.False(t, d.Supports("video/quicktime"))
}

func TestFFmpegArgs(t *testing.T) {
	d := linuxDevice()

	args := strings.Join(d.Args(Options{MimeType: "video/webm;codecs=vp8,opus"}), " ")
	assert.Contains(t, args, "-f x11grab -framerate 30 -i :1.0")
	assert.Contains(t, args, "-f pulse -i default")
	assert.Contains(t, args, "-c:v libvpx ")
	assert.Contains(t, args, "-c:a libopus")
	assert.True(t, strings.HasSuffix(args, "-f webm pipe:1"))

	args = strings.Join(d.Args(Options{MimeType: "video/mp4"}), " ")
	assert.Contains(t, args, "-c:v libx264")
	assert.Contains(t, args, "frag_keyframe+empty_moov")
}

func TestFFmpegAvailability(t *testing.T) {
	d := linuxDevice()
	assert.True(t, d.Available())

	d.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	assert.False(t, d.Available())

	d = linuxDevice()
	d.goos = "plan9"
	assert.False(t, d.Available())
}

func TestClassifyFFmpeg(t *testing.T) {
	err := classifyFFmpeg(errors.New("exit status 1"), "Cannot open display :0.0, error 1.")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = classifyFFmpeg(errors.New("exit status 1"), "Unknown encoder")
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}

// scriptDevice runs a shell script in place of ffmpeg.
func scriptDevice(t *testing.T, script string) *FFmpegDevice {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))

	d := linuxDevice()
	d.Path = path
	d.StartGrace = 2 * time.Second
	return d
}

func TestFFmpegOpenReportsDeniedDisplay(t *testing.T) {
	d := scriptDevice(t, "echo 'Cannot open display :1.0, error 1.' >&2\nexit 1\n")

	stream, err := d.Open(context.Background(), Options{MimeType: "video/webm", Timeslice: 10 * time.Millisecond})
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFFmpegOpenReportsEarlyExit(t *testing.T) {
	d := scriptDevice(t, "exit 0\n")

	_, err := d.Open(context.Background(), Options{MimeType: "video/webm", Timeslice: 10 * time.Millisecond})
	assert.ErrorIs(t, err, errExitedEarly)
}

func TestFFmpegStreamsUntilStopped(t *testing.T) {
	d := scriptDevice(t, "printf chunk\nread q\n")

	stream, err := d.Open(context.Background(), Options{MimeType: "video/webm", Timeslice: 10 * time.Millisecond})
	require.NoError(t, err)
	stream.RequestStop()

	var data []byte
	var last Event
	for ev := range stream.Events() {
		if ev.Kind == EventChunk {
			data = append(data, ev.Data...)
			continue
		}
		last = ev
	}
	assert.Equal(t, "chunk", string(data))
	assert.Equal(t, EventStopped, last.Kind)
	assert.NoError(t, stream.Release())
}
