package services

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/centralrock/route-tracker/internal/models"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// FCM accepts at most this many tokens per multicast message.
const pushBatchSize = 500

// PushService announces newly set routes to members' devices through
// Firebase Cloud Messaging.
type PushService struct {
	client *messaging.Client
	db     *gorm.DB
}

// NewPushService returns a disabled service when no service account is
// configured or Firebase cannot be reached, so local runs need no credentials.
func NewPushService(ctx context.Context, db *gorm.DB, serviceAccountPath string) *PushService {
	svc := &PushService{db: db}
	if serviceAccountPath == "" {
		slog.Info("FCM: no service account configured, push notifications disabled")
		return svc
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		slog.Error("FCM: failed to initialize Firebase app", "error", err)
		return svc
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		slog.Error("FCM: failed to get messaging client", "error", err)
		return svc
	}

	svc.client = client
	slog.Info("FCM: push notifications enabled")
	return svc
}

func (p *PushService) Enabled() bool {
	return p != nil && p.client != nil
}

// AnnounceRoute tells every member with a registered device about a new route.
func (p *PushService) AnnounceRoute(ctx context.Context, route *models.Route) {
	if !p.Enabled() {
		return
	}

	tokens, err := p.deviceTokens(ctx)
	if err != nil {
		slog.Error("FCM: failed to load device tokens", "error", err)
		return
	}

	title := "New route set"
	body := fmt.Sprintf("%s is up in %s", route.Label(), route.Area.Name)
	data := map[string]string{
		"type":    "route_set",
		"routeId": route.ID.String(),
		"areaId":  route.AreaID.String(),
	}

	for start := 0; start < len(tokens); start += pushBatchSize {
		end := start + pushBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		msg := &messaging.MulticastMessage{
			Tokens:       tokens[start:end],
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         data,
		}
		resp, err := p.client.SendEachForMulticast(ctx, msg)
		if err != nil {
			slog.Error("FCM: multicast failed", "route", route.ID, "error", err)
			continue
		}
		if resp.FailureCount > 0 {
			slog.Warn("FCM: some deliveries failed", "route", route.ID, "failed", resp.FailureCount)
		}
	}
}

func (p *PushService) deviceTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := p.db.WithContext(ctx).Model(&models.Member{}).
		Where("device_token <> ?", "").
		Distinct().
		Pluck("device_token", &tokens).Error
	return tokens, err
}
