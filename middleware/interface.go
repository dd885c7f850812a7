package middleware

import "fmt"

type MessageMiddlewareError struct {
	Code int
	Msg  string
}

func (e *MessageMiddlewareError) Error() string {
	return fmt.Sprintf("middleware error (%d): %s", e.Code, e.Msg)
}

const (
	MessageMiddlewareMessageError int = iota + 1
	MessageMiddlewareDisconnectedError
	MessageMiddlewareCloseError
	MessageMiddlewareDeleteError
)

// MessageMiddleware publishes messages to an exchange.
type MessageMiddleware interface {
	/*
	   Sends a message to the exchange the producer was created for.
	   Returns MessageMiddlewareDisconnectedError if the connection was lost and
	   MessageMiddlewareMessageError on any other publishing failure.
	*/
	Send(message []byte) (error *MessageMiddlewareError)

	/*
	   Disconnects from the exchange.
	   Returns MessageMiddlewareCloseError if the channel could not be closed.
	*/
	Close() (error *MessageMiddlewareError)

	/*
	   Removes the exchange from the broker.
	   Returns MessageMiddlewareDeleteError if the broker refused.
	*/
	Delete() (error *MessageMiddlewareError)
}
