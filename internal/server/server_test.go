// internal/server/server_test.go
package server

import (
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jason-s-yu/threecard/internal/config"
	"github.com/jason-s-yu/threecard/internal/protocol"
	"github.com/jason-s-yu/threecard/internal/transport"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ioTimeout = 5 * time.Second

// testClient speaks the wire protocol the way a game client does, answering
// every state push it reads.
type testClient struct {
	t   *testing.T
	nc  net.Conn
	d   *transport.Deframer
	seq int64
}

func dial(t *testing.T, s *GameServer) *testClient {
	t.Helper()
	port := s.Addr().(*net.TCPAddr).Port
	nc, err := net.DialTimeout("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), ioTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { nc.Close() })
	return &testClient{t: t, nc: nc, d: transport.NewDeframer(transport.MaxBuffered)}
}

func (c *testClient) write(payload []byte) {
	c.t.Helper()
	frame, err := transport.EncodeFrame(payload)
	require.NoError(c.t, err)
	_, err = c.nc.Write(frame)
	require.NoError(c.t, err)
}

func (c *testClient) request(typeName string, v any) int64 {
	c.t.Helper()
	seq := c.seq
	c.seq++
	payload, err := protocol.EncodeRequest(seq, typeName, protocol.MustMarshal(v))
	require.NoError(c.t, err)
	c.write(payload)
	return seq
}

// next blocks for one decoded envelope. It returns an error once the server
// hangs up.
func (c *testClient) next() (protocol.Envelope, error) {
	buf := make([]byte, 2048)
	for {
		if payload, ok := c.d.Next(); ok {
			return protocol.DecodeEnvelope(payload)
		}
		require.NoError(c.t, c.nc.SetReadDeadline(time.Now().Add(ioTimeout)))
		n, err := c.nc.Read(buf)
		if n > 0 {
			require.NoError(c.t, c.d.Push(buf[:n]))
		}
		if err != nil {
			return protocol.Envelope{}, err
		}
	}
}

// pump reads until match returns true, acknowledging pushes along the way.
func (c *testClient) pump(match func(protocol.Envelope) bool) protocol.Envelope {
	c.t.Helper()
	for {
		env, err := c.next()
		require.NoError(c.t, err)
		if env.Request != nil && env.Request.Type == protocol.TypeUpdateGameState {
			ack, err := protocol.EncodeResponse(env.Request.Seq,
				protocol.MustMarshal(protocol.UpdateGameStateResponse{Success: true}))
			require.NoError(c.t, err)
			c.write(ack)
		}
		if match(env) {
			return env
		}
	}
}

func (c *testClient) awaitResponse(seq int64) string {
	c.t.Helper()
	env := c.pump(func(env protocol.Envelope) bool {
		return env.Response != nil && env.Response.Seq == seq
	})
	return env.Response.Data
}

func (c *testClient) awaitState(want protocol.GameState) protocol.GameStateInfo {
	c.t.Helper()
	var push protocol.UpdateGameStateRequest
	c.pump(func(env protocol.Envelope) bool {
		if env.Request == nil || env.Request.Type != protocol.TypeUpdateGameState {
			return false
		}
		require.NoError(c.t, protocol.Unmarshal(env.Request.Data, &push))
		return push.GameStateInfo.CurrentState == want
	})
	return push.GameStateInfo
}

func (c *testClient) handshake(profile, name string) bool {
	c.t.Helper()
	seq := c.request(protocol.TypeHandshake, protocol.HandshakeRequest{ProfileID: profile, Name: name})
	var resp protocol.HandshakeResponse
	require.NoError(c.t, protocol.Unmarshal(c.awaitResponse(seq), &resp))
	return resp.Success
}

func startTestServer(t *testing.T) *GameServer {
	t.Helper()
	cfg := config.Default()
	cfg.Port = 0
	cfg.TurnTime = time.Minute

	log := logrus.New()
	log.SetOutput(io.Discard)
	s, err := New(cfg, log, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ProfileIDs = []string{"solo"}
	_, err := New(cfg, logrus.New(), nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestMatchOverTCP(t *testing.T) {
	s := startTestServer(t)
	require.NotZero(t, s.Addr().(*net.TCPAddr).Port)

	alice := dial(t, s)
	require.True(t, alice.handshake("aaa", "Alice"))
	waiting := alice.awaitState(protocol.StateWaitingForPlayers)
	assert.Equal(t, "Alice", waiting.PlayerInfos[0].Name)
	assert.Equal(t, 500, waiting.PlayerInfos[0].NetWorth)

	bob := dial(t, s)
	require.True(t, bob.handshake("bbb", "Bob"))

	aliceView := alice.awaitState(protocol.StatePlayersTurn)
	bobView := bob.awaitState(protocol.StatePlayersTurn)
	assert.Equal(t, 0, aliceView.ActivePlayer)
	assert.Equal(t, 1, bobView.ActivePlayer, "seat 0 is seat 1 from bob's side")
	assert.Len(t, bobView.PlayerInfos[0].MainHand, 3)
	assert.Empty(t, bobView.PlayerInfos[1].MainHand)
	assert.Equal(t, "Alice", bobView.PlayerInfos[1].Name)

	seq := alice.request(protocol.TypeDoGeneralAction, protocol.DoGeneralActionRequest{Action: protocol.ActionFold})
	var resp protocol.DoGeneralActionResponse
	require.NoError(t, protocol.Unmarshal(alice.awaitResponse(seq), &resp))
	assert.True(t, resp.Success)

	result := bob.awaitState(protocol.StateRoundResult)
	assert.Equal(t, 505, result.PlayerInfos[0].NetWorth)
	assert.Equal(t, 495, result.PlayerInfos[1].NetWorth)
	var won protocol.RoundResultStateData
	require.NoError(t, protocol.Unmarshal(result.PlayerInfos[0].StateData, &won))
	assert.True(t, won.IsWinner)
	// every hand is revealed through the round result
	var lost protocol.RoundResultStateData
	require.NoError(t, protocol.Unmarshal(result.PlayerInfos[1].StateData, &lost))
	assert.Len(t, lost.Hand, 3)
}

func TestUnknownProfileKeepsConnection(t *testing.T) {
	s := startTestServer(t)
	c := dial(t, s)
	assert.False(t, c.handshake("zzz", "Mallory"))
	assert.True(t, c.handshake("aaa", "Alice"))
}

func TestRequestInWrongStateGetsEmptyResponse(t *testing.T) {
	s := startTestServer(t)
	c := dial(t, s)
	seq := c.request(protocol.TypeDoGeneralAction, protocol.DoGeneralActionRequest{Action: protocol.ActionFold})
	assert.Equal(t, "", c.awaitResponse(seq))
}

func TestMalformedFrameDropsConnection(t *testing.T) {
	s := startTestServer(t)
	c := dial(t, s)
	c.write([]byte("definitely not an envelope"))

	_, err := c.next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || isReset(err), "got %v", err)

	// the server itself keeps serving
	other := dial(t, s)
	assert.True(t, other.handshake("aaa", "Alice"))
}

func TestReconnectRebindsSlot(t *testing.T) {
	s := startTestServer(t)
	first := dial(t, s)
	require.True(t, first.handshake("aaa", "Alice"))
	first.awaitState(protocol.StateWaitingForPlayers)
	first.nc.Close()

	second := dial(t, s)
	require.True(t, second.handshake("aaa", "Alice again"))
	view := second.awaitState(protocol.StateWaitingForPlayers)
	assert.Equal(t, "Alice again", view.PlayerInfos[0].Name)
}

func TestStopClosesClients(t *testing.T) {
	s := startTestServer(t)
	c := dial(t, s)
	require.True(t, c.handshake("aaa", "Alice"))
	c.awaitState(protocol.StateWaitingForPlayers)

	s.Stop()
	var err error
	for err == nil {
		_, err = c.next()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		assert.False(t, ne.Timeout(), "server never hung up")
	}
}

func isReset(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && !opErr.Timeout()
}
