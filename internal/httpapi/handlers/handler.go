package handlers

import (
	"github.com/familymenu/nutrition-ai/internal/chat"
	"github.com/familymenu/nutrition-ai/internal/config"
	"github.com/familymenu/nutrition-ai/internal/meals"
	"github.com/familymenu/nutrition-ai/internal/store/rabbitmq"
	"github.com/familymenu/nutrition-ai/internal/store/redisstore"
)

type Handler struct {
	Cfg        config.Config
	ChatSvc    *chat.Service
	ChatRepo   *chat.Repo
	Cache      *redisstore.Store
	Reconciler *chat.Reconciler
	MealSvc    *meals.Service
	Rabbit     *rabbitmq.Publisher
}

func NewHandler(cfg config.Config, chatSvc *chat.Service, chatRepo *chat.Repo, cache *redisstore.Store, rec *chat.Reconciler, mealSvc *meals.Service, rabbit *rabbitmq.Publisher) *Handler {
	return &Handler{
		Cfg:        cfg,
		ChatSvc:    chatSvc,
		ChatRepo:   chatRepo,
		Cache:      cache,
		Reconciler: rec,
		MealSvc:    mealSvc,
		Rabbit:     rabbit,
	}
}
