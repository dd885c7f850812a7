package middleware

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type Producer struct {
	name    string
	key     string
	channel *amqp.Channel
}

// NewProducer declares a direct exchange called name on the broker at address.
// Messages are published with the optional routing key.
func NewProducer(name string, address string, keys ...string) (*Producer, error) {
	conn, err := GetConnection(address)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(
		name,
		"direct", // type
		false,    // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}
	return &Producer{name: name, key: key, channel: ch}, nil
}

func (p *Producer) Send(message []byte) (error *MessageMiddlewareError) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := p.channel.PublishWithContext(
		ctx,
		p.name,
		p.key,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        message,
		})
	if err == nil {
		return nil
	}
	if errors.Is(err, amqp.ErrClosed) || p.channel.IsClosed() {
		return &MessageMiddlewareError{Code: MessageMiddlewareDisconnectedError, Msg: "Failed to send message: " + err.Error()}
	}
	return &MessageMiddlewareError{Code: MessageMiddlewareMessageError, Msg: "Failed to send message: " + err.Error()}
}

func (p *Producer) Close() (error *MessageMiddlewareError) {
	if p.channel.IsClosed() {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return &MessageMiddlewareError{Code: MessageMiddlewareCloseError, Msg: err.Error()}
	}
	return nil
}

func (p *Producer) Delete() (error *MessageMiddlewareError) {
	if p.channel.IsClosed() {
		return &MessageMiddlewareError{Code: MessageMiddlewareDeleteError, Msg: "channel already closed"}
	}
	if err := p.channel.ExchangeDelete(p.name, false, false); err != nil {
		return &MessageMiddlewareError{Code: MessageMiddlewareDeleteError, Msg: err.Error()}
	}
	return nil
}
