// Command publish emits a NEW_BOOK event onto the book_events exchange.
// Development tool for exercising the consumer end to end without running
// the catalog service.
//
//	go run ./cmd/publish -title "Clean Architecture" -users u1,u2
package main

import (
	"context"
	"encoding/json"
	"flag"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/bus"
	"github.com/bookhub/notification-service/internal/domain"
)

func main() {
	var (
		url      = flag.String("url", "amqp://localhost:5672", "broker URL")
		title    = flag.String("title", "The Go Programming Language", "book title")
		author   = flag.String("author", "Donovan", "book author")
		category = flag.String("category", "TECH", "book category")
		price    = flag.Float64("price", 39.99, "book price")
		users    = flag.String("users", "", "comma-separated interested user ids")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	event := struct {
		Type    string              `json:"type"`
		Payload domain.NewBookEvent `json:"payload"`
	}{
		Type: string(domain.TypeNewBook),
		Payload: domain.NewBookEvent{
			EventID: uuid.New().String(),
			Book: domain.Book{
				ID:       uuid.New().String(),
				Title:    *title,
				Author:   *author,
				Category: *category,
				Price:    *price,
			},
			InterestedUsers: splitUsers(*users),
		},
	}
	body, err := json.Marshal(event)
	if err != nil {
		logger.Fatal("marshal event", zap.Error(err))
	}

	publisher := bus.NewPublisher(*url, logger)
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := publisher.Publish(ctx, bus.RoutingKeyBookCreated, body); err != nil {
		logger.Fatal("publish event", zap.Error(err))
	}
	logger.Info("event published",
		zap.String("event_id", event.Payload.EventID),
		zap.String("title", *title),
		zap.Int("interested_users", len(event.Payload.InterestedUsers)))
}

func splitUsers(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	users := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			users = append(users, p)
		}
	}
	return users
}
