package middleware

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitConn struct {
	conn *amqp.Connection
}

var (
	connMu    sync.Mutex
	instances = make(map[string]*RabbitConn)
)

// GetConnection returns the shared connection to url, dialing it on first use
// or when the previous one was closed.
func GetConnection(url string) (*RabbitConn, error) {
	connMu.Lock()
	defer connMu.Unlock()

	if c, ok := instances[url]; ok && !c.conn.IsClosed() {
		return c, nil
	}
	c, err := amqp.Dial(url)
	if err != nil {
		return nil, &MessageMiddlewareError{Code: MessageMiddlewareDisconnectedError, Msg: "could not connect to RabbitMQ: " + err.Error()}
	}
	instance := &RabbitConn{conn: c}
	instances[url] = instance
	return instance, nil
}

func (r *RabbitConn) Channel() (*amqp.Channel, error) {
	if r.conn.IsClosed() {
		return nil, &MessageMiddlewareError{Code: MessageMiddlewareDisconnectedError, Msg: "Connection is closed"}
	}
	return r.conn.Channel()
}

func (r *RabbitConn) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// CloseAll closes every shared connection.
func CloseAll() {
	connMu.Lock()
	defer connMu.Unlock()
	for url, c := range instances {
		_ = c.Close()
		delete(instances, url)
	}
}
