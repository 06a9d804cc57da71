package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestMessageHeaderCarrier(t *testing.T) {
	c := &MessageHeaderCarrier{}
	assert.Equal(t, "", c.Get("traceparent"))

	c.Set("traceparent", "00-abc-def-01")
	assert.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())

	c.Headers["x-retry"] = int32(2)
	assert.Equal(t, "", c.Get("x-retry"))
}

func TestInjectHeadersKeepsExisting(t *testing.T) {
	in := amqp.Table{"x-source": "scheduler"}
	out := InjectHeaders(context.Background(), in)

	assert.Equal(t, "scheduler", out["x-source"])
	assert.Len(t, in, 1)
}
