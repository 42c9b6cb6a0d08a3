package main

import (
	"context"

	"github.com/rs/zerolog/log"

	classifierx "github.com/grubgather/grubgather/agent/classifier"
	contractx "github.com/grubgather/grubgather/agent/contract"
	dispatcherx "github.com/grubgather/grubgather/agent/dispatcher"
	restaurantx "github.com/grubgather/grubgather/agent/restaurant"
	storex "github.com/grubgather/grubgather/agent/store"
	checkoutx "github.com/grubgather/grubgather/checkout"
	configx "github.com/grubgather/grubgather/pkg/config"
	_ "github.com/grubgather/grubgather/pkg/logger/autoload"
	openrouterx "github.com/grubgather/grubgather/pkg/openrouter"
	webhookx "github.com/grubgather/grubgather/pkg/webhook"
	webx "github.com/grubgather/grubgather/web"
)

type AppConfig struct {
	DeliveryName    string `envconfig:"DELIVERY_NAME" split_words:"true"`
	DeliveryAddress string `envconfig:"DELIVERY_ADDRESS" split_words:"true"`
	DeliveryPhone   string `envconfig:"DELIVERY_PHONE" split_words:"true"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	webCfg := configx.MustNew[webx.Config]("WEB")
	checkoutCfg := configx.MustNew[checkoutx.Config]("CHECKOUT")
	webhookCfg := configx.MustNew[webhookx.Config]("WEBHOOK")

	classifier, err := classifierx.New(ctx, llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize intent classifier")
	}

	resolver := restaurantx.New(openrouterx.NewClient(*llmCfg), llmCfg.Model)
	orderStore := storex.New()
	runner := checkoutx.NewRunner(*checkoutCfg)

	var notifier contractx.Notifier
	if webhookCfg.URL != "" {
		notifier = &webhookNotifier{client: webhookx.MustNew(*webhookCfg)}
	}

	dispatcher, err := dispatcherx.New(orderStore, classifier, resolver, runner, notifier, dispatcherx.Config{
		Delivery: contractx.DeliveryInfo{
			Name:    appCfg.DeliveryName,
			Address: appCfg.DeliveryAddress,
			Phone:   appCfg.DeliveryPhone,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dispatcher")
	}

	server := webx.New(dispatcher, orderStore, *webCfg)
	if err := server.Run(webCfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("web server exited")
	}
}

// webhookNotifier forwards late checkout status updates to the chat
// transport's webhook endpoint.
type webhookNotifier struct {
	client *webhookx.Client
}

func (n *webhookNotifier) Notify(ctx context.Context, message string) {
	if err := n.client.Publish(ctx, map[string]string{"message": message}); err != nil {
		log.Warn().Err(err).Msg("status update delivery failed")
	}
}
