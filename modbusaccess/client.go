package modbusaccess

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/grid-x/modbus"
)

// Client is a modbus TCP client that lazily connects, and reconnects after any failed read.
type Client struct {
	host    string
	slaveID byte
	timeout time.Duration

	handler         *modbus.TCPClientHandler
	subClient       modbus.Client // the raw client of the underlying modbus library we are using
	shouldReconnect bool          // when true, the subClient is 'dirty' and will be re-created on the next read
	logger          *slog.Logger
}

func NewClient(host string, slaveID byte, timeout time.Duration) *Client {
	return &Client{
		host:            host,
		slaveID:         slaveID,
		timeout:         timeout,
		shouldReconnect: true, // the connection is made lazily on the first read
		logger:          slog.Default().With("host", host),
	}
}

// ReadHoldingRegisters reads `quantity` registers starting at `address`.
func (c *Client) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	err := c.reconnectIfNeccesary()
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	bytes, err := c.subClient.ReadHoldingRegisters(address, quantity)
	if err != nil {
		c.shouldReconnect = true
		return nil, err
	}

	return bytes, nil
}

// Close closes the underlying connection, if there is one.
func (c *Client) Close() error {
	if c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// reconnectIfNeccesary will close the old connection and reconnect if there have been problems with the connection.
func (c *Client) reconnectIfNeccesary() error {
	if !c.shouldReconnect {
		return nil
	}

	// Ignore errors from Close() as we will continue with the reconnect anyway and start a new connection.
	if c.handler != nil {
		c.handler.Close()
	}

	handler := modbus.NewTCPClientHandler(c.host)
	handler.Timeout = c.timeout
	handler.SlaveID = c.slaveID

	err := handler.Connect()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.handler = handler
	c.subClient = modbus.NewClient(handler)
	c.shouldReconnect = false

	c.logger.Info("Connected modbus client")

	return nil
}
