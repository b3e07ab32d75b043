package simnet

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewPPPNetwork(t *testing.T) {
	t.Run("wires the two hosts symmetrically with the given delay", func(t *testing.T) {
		client, server := &recorder{}, &recorder{}
		vn := NewPPPNetwork[string](&PPPConfig[string]{
			Capture:       nil,
			ClientHandler: client,
			Logger:        &NullLogger{},
			OneWayDelay:   10 * time.Millisecond,
			ServerHandler: server,
		})

		// client to server direction
		vn.Host(PPPClient).Dispatcher().SendFrame(PPPDevice, []byte("syn"))
		result := vn.Step()
		if result.TimeDelta != 10*time.Millisecond || result.FramesDelivered != 1 {
			t.Fatal("unexpected first step result", result)
		}
		if diff := cmp.Diff([]string{"syn"}, server.delivered); diff != "" {
			t.Fatal(diff)
		}

		// server to client direction
		vn.Host(PPPServer).Dispatcher().SendFrame(PPPDevice, []byte("ack"))
		result = vn.Step()
		if result.TimeDelta != 10*time.Millisecond || result.FramesDelivered != 1 {
			t.Fatal("unexpected second step result", result)
		}
		if diff := cmp.Diff([]string{"ack"}, client.delivered); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("panics on a nil config", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic")
			}
		}()
		NewPPPNetwork[string](nil)
	})

	t.Run("panics on missing handlers", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic")
			}
		}()
		NewPPPNetwork[string](&PPPConfig[string]{
			ClientHandler: &recorder{},
			Logger:        &NullLogger{},
		})
	})
}
