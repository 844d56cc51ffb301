package main

import (
	"context"
	"net/http"

	httpadapter "github.com/taskdeck/taskdeck/internal/adapters/http"
	"github.com/taskdeck/taskdeck/internal/adapters/llm"
	memstore "github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	sqlitestore "github.com/taskdeck/taskdeck/internal/adapters/storage/sqlite"
	"github.com/taskdeck/taskdeck/internal/app/chat"
	"github.com/taskdeck/taskdeck/internal/app/chatflow"
	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/observability"
)

func main() {
	ctx := context.Background()
	log := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	var model domain.ChatModel
	if cfg.UseMockLLM {
		log.Infow("using scripted LLM client")
		model = llm.NewScriptedModel(domain.ModelTurn{
			Text: "This is a scripted reply. Set TASKDECK_GEMINI_API_KEY to talk to Gemini.",
		})
	} else {
		log.Infow("using Gemini LLM client", "model", cfg.ModelName)
		model, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			log.Fatalw("error initializing Gemini client", "error", err)
		}
	}

	var (
		taskStore     domain.TaskStore
		groupStore    domain.GroupStore
		categoryStore domain.CategoryStore
		threadStore   domain.ThreadStore
	)

	switch cfg.StorageBackend {
	case "sqlite":
		log.Infow("using sqlite storage", "path", cfg.SQLitePath)
		store, err := sqlitestore.NewStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalw("error initializing sqlite store", "error", err)
		}
		defer store.Close()

		// 1 store, implements 4 interfaces
		taskStore = store
		groupStore = store
		categoryStore = store
		threadStore = store

	default:
		log.Infow("using in-memory storage")
		taskStore = memstore.NewTaskStore()
		groupStore = memstore.NewGroupStore()
		categoryStore = memstore.NewCategoryStore()
		threadStore = memstore.NewThreadStore()
	}

	taskSvc := tasks.NewService(taskStore, groupStore, categoryStore)

	registry := tools.NewRegistry()
	tools.RegisterAll(registry, taskSvc)

	orch := chatflow.New(model, registry, cfg.MaxTurnSteps)
	chatSvc := chat.NewService(threadStore, orch)

	handler := httpadapter.NewServer(taskSvc, chatSvc)

	addr := ":" + cfg.Port
	log.Infow("taskdeck API listening", "addr", addr, "tools", registry.Count())
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
