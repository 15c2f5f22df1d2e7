package sink

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes; the embedded interface panics on anything else
type fakeClient struct {
	mqtt.Client
	token        *fakeToken
	messages     []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnected = true
}

func TestMQTTPublishes(t *testing.T) {
	client := &fakeClient{token: &fakeToken{done: true}}
	m := newMQTT(client, MQTTConfig{Topic: "gnss/nmea", QoS: 1, Retained: true})

	buf := []byte(epoch)
	require.NoError(t, m.Send(buf))
	require.NoError(t, m.Send(nil))
	buf[1] = 'X'

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "gnss/nmea", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)
	assert.Equal(t, epoch, string(msg.payload), "payload must not alias the caller's buffer")

	require.NoError(t, m.Close())
	assert.True(t, client.disconnected)
}

func TestMQTTErrors(t *testing.T) {
	m := newMQTT(&fakeClient{token: &fakeToken{done: false}}, MQTTConfig{Topic: "t", Timeout: time.Millisecond})
	assert.ErrorIs(t, m.Send([]byte(epoch)), ErrPublishTimeout)

	refused := errors.New("not authorized")
	m = newMQTT(&fakeClient{token: &fakeToken{done: true, err: refused}}, MQTTConfig{Topic: "t"})
	assert.ErrorIs(t, m.Send([]byte(epoch)), refused)

	_, err := NewMQTT(MQTTConfig{Broker: "tcp://localhost:1883"})
	assert.ErrorIs(t, err, ErrNoDestination)
}
