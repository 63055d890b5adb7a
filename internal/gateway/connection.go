package gateway

import "sync"

type Connection struct {
	Id   string
	Send chan []byte

	closeOnce sync.Once
}

func NewConnection(id string, bufferSize int) *Connection {
	return &Connection{
		Id:   id,
		Send: make(chan []byte, bufferSize),
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}
