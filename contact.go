package pagesmith

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith/contact"
)

// ContactPath is where the contact form posts to.
const ContactPath = "/api/contact"

// maxContactBody bounds the size of a contact form submission.
const maxContactBody = 64 << 10

// relayBatch is how many stored submissions one relay tick forwards.
const relayBatch = 50

func (a *App) setupContact(ctx context.Context) error {
	cfg := a.Config.Contact
	if a.publisher == nil {
		switch cfg.Publisher {
		case PublisherNone:
			return nil
		case PublisherLog:
			a.publisher = contact.LogPublisher{Logger: a.Logger.Named("contact")}
		case PublisherSNS:
			if cfg.TopicARN == "" {
				return fmt.Errorf("publisher %q needs a topic arn", cfg.Publisher)
			}
			p, err := contact.NewSNSPublisher(ctx, cfg.TopicARN)
			if err != nil {
				return err
			}
			a.publisher = p
		case PublisherStore:
			store, err := contact.OpenStore(ctx, cfg.StoreDSN)
			if err != nil {
				return err
			}
			a.closers = append(a.closers, store)
			a.publisher = store
			if cfg.TopicARN != "" {
				sns, err := contact.NewSNSPublisher(ctx, cfg.TopicARN)
				if err != nil {
					return err
				}
				a.closers = append(a.closers, a.startRelay(store, sns, cfg.RelayInterval))
			}
		default:
			return fmt.Errorf("unknown publisher %q", cfg.Publisher)
		}
	}

	a.Contact = contact.NewService(cfg.AllowedOrigin, a.publisher, a.Logger.Named("contact"))
	a.contactLimiter = NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	a.closers = append(a.closers, a.contactLimiter)
	return nil
}

// startRelay periodically forwards stored submissions to p.
func (a *App) startRelay(store *contact.Store, p contact.Publisher, interval time.Duration) io.Closer {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	logger := a.Logger.Named("contact")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			n, err := store.Drain(ctx, p, relayBatch)
			if err != nil {
				logger.Warn("relay contact submissions", zap.Int("relayed", n), zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("relayed contact submissions", zap.Int("relayed", n))
			}
		}
	}()

	return closerFunc(func() error {
		cancel()
		<-done
		return nil
	})
}

func (a *App) handleContact(c echo.Context) error {
	req := c.Request()
	if req.Method == http.MethodPost && !a.contactLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "Too many requests"})
	}

	creq := contact.Request{
		Origin: req.Header.Get(echo.HeaderOrigin),
		Method: req.Method,
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxContactBody))
	if err != nil {
		a.Logger.Warn("read contact body", zap.Error(err))
		return writeContact(c, a.Contact.Invalid(creq))
	}
	creq.Body = body
	return writeContact(c, a.Contact.Handle(req.Context(), creq))
}

func writeContact(c echo.Context, resp contact.Response) error {
	h := c.Response().Header()
	for k, v := range resp.Headers {
		if k == echo.HeaderContentLength {
			continue
		}
		h.Set(k, v)
	}
	if len(resp.Body) == 0 {
		return c.NoContent(resp.StatusCode)
	}
	return c.Blob(resp.StatusCode, h.Get(echo.HeaderContentType), resp.Body)
}
