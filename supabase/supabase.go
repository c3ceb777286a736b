package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	supa "github.com/nedpals/supabase-go"
)

const (
	defaultUploadTimeout = time.Second * 10
)

// Client uploads readings to Supabase tables. It wraps the open source supabase library, which has no timeout support,
// and re-creates the underlying client after any failure.
type Client struct {
	url           string
	anonKey       string
	userKey       string
	schema        string
	uploadTimeout time.Duration

	subClient       *supa.Client
	shouldReconnect bool // when true, the subClient is re-created before the next upload
	logger          *slog.Logger
}

// New returns a client for the given project. The connection is made lazily on the first upload.
func New(url, anonKey, userKey, schema string) *Client {
	return &Client{
		url:             url,
		anonKey:         anonKey,
		userKey:         userKey,
		schema:          schema,
		uploadTimeout:   defaultUploadTimeout,
		shouldReconnect: true,
		logger:          slog.Default().With("host", url),
	}
}

// UploadReadings inserts the given readings (a slice of telemetry.MeterReading or telemetry.SensorReading) into the
// relevant supabase table.
func (c *Client) UploadReadings(readings interface{}) error {

	err := c.reconnectIfNeccesary()
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	supabaseReadings, supabaseTableName := convertReadingsForSupabase(readings)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.subClient.DB.From(supabaseTableName).Insert(supabaseReadings).Execute(nil)
	}()

	select {
	case <-time.After(c.uploadTimeout):
		c.shouldReconnect = true
		return errors.New("timed out")
	case err := <-errCh:
		if err != nil {
			c.shouldReconnect = true
		}
		return err
	}
}

// reconnectIfNeccesary re-creates the underlying supabase client if there have been problems with the last one.
func (c *Client) reconnectIfNeccesary() error {
	if !c.shouldReconnect {
		return nil
	}

	subClient := supa.CreateClient(c.url, c.anonKey)
	if subClient == nil {
		return errors.New("create supabase client")
	}

	// The library doesn't expose schema selection, so the postgrest profile headers are set directly
	subClient.DB.AddHeader("Accept-Profile", c.schema)
	subClient.DB.AddHeader("Content-Profile", c.schema)

	if c.userKey != "" {
		subClient.DB.AddHeader("Authorization", fmt.Sprintf("Bearer %s", c.userKey))
	}

	c.subClient = subClient
	c.shouldReconnect = false

	c.logger.Info("Created supabase client")

	return nil
}
