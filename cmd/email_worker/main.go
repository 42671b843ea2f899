package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"authhub/internal/config"
	"authhub/internal/mailer"
	"authhub/internal/queue"
)

const popTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	emailQueue := queue.New(rdb, queue.EmailQueue)
	sender := mailer.NewConsoleMailer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("email worker consuming %s", queue.EmailQueue)
	for {
		select {
		case <-ctx.Done():
			log.Print("email worker shutting down")
			return
		default:
		}

		job, err := emailQueue.Dequeue(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Print("email worker shutting down")
				return
			}
			log.Printf("dequeue failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := dispatch(ctx, sender, job); err != nil {
			// A failed send is logged and dropped, not retried.
			log.Printf("send %s to %s failed: %v", job.Kind, job.Email, err)
		}
	}
}

func dispatch(ctx context.Context, sender mailer.Mailer, job *queue.Job) error {
	switch job.Kind {
	case queue.KindVerificationEmail:
		return sender.SendVerificationEmail(ctx, job.Email, job.Token)
	case queue.KindPasswordResetEmail:
		return sender.SendPasswordResetEmail(ctx, job.Email, job.Token)
	case queue.KindWelcomeEmail:
		return sender.SendWelcomeEmail(ctx, job.Email, job.Name)
	default:
		log.Printf("unknown job kind %q, dropping", job.Kind)
		return nil
	}
}
