// Package service implements the scheduling assistant's use cases.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/adapter/llm"
	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/config"
	"github.com/xiaot623/healthflow/internal/conversation"
	"github.com/xiaot623/healthflow/internal/nlu"
	"github.com/xiaot623/healthflow/internal/repository"
	"github.com/xiaot623/healthflow/internal/tools"
	"github.com/xiaot623/healthflow/policy"
)

// Deps are the collaborators of a Service. Store and Config are required;
// nil NLU, conversation and registry fields get defaults built from them.
type Deps struct {
	Store         repository.Store
	Conversations *conversation.Store
	Registry      *tools.Registry
	LLM           llm.LLMClient
	Policy        *policy.Engine
	TimeResolver  nlu.TimeResolver
	Intents       nlu.IntentExtractor
	Tokens        *auth.Tokens
	Config        *config.Config
	Logger        *zap.Logger
	Now           func() time.Time
}

type Service struct {
	store         repository.Store
	conversations *conversation.Store
	registry      *tools.Registry
	llmClient     llm.LLMClient
	policyEngine  *policy.Engine
	timeResolver  nlu.TimeResolver
	intents       nlu.IntentExtractor
	tokens        *auth.Tokens
	config        *config.Config
	loc           *time.Location
	logger        *zap.Logger
	now           func() time.Time

	toolDefs []llm.Tool
	metrics  *instruments
}

func New(deps Deps) *Service {
	s := &Service{
		store:         deps.Store,
		conversations: deps.Conversations,
		registry:      deps.Registry,
		llmClient:     deps.LLM,
		policyEngine:  deps.Policy,
		timeResolver:  deps.TimeResolver,
		intents:       deps.Intents,
		tokens:        deps.Tokens,
		config:        deps.Config,
		logger:        deps.Logger,
		now:           deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.loc = nlu.LoadLocation(s.config.AppTimezone)

	if s.conversations == nil {
		s.conversations = conversation.NewStore(conversation.Options{
			MaxMessages: s.config.HistoryMaxMessages,
			IdleTTL:     s.config.SessionIdleTTL(),
			Logger:      s.logger.Named("conversation"),
		})
	}
	if s.timeResolver == nil {
		s.timeResolver = nlu.NewTimeResolver(s.loc)
	}
	if s.intents == nil {
		s.intents = nlu.NewIntentExtractor()
	}
	if s.registry == nil {
		s.registry = tools.NewRegistry(tools.Deps{
			Users:        s.store,
			Appointments: s.store,
			Location:     s.loc,
			Logger:       s.logger.Named("tools"),
		})
	}

	s.toolDefs = toolDefinitions()
	s.metrics = newInstruments(s.logger)
	return s
}

// Run drives background maintenance until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.conversations.Run(ctx)
}

// ModelConfigured reports whether prompts can be processed.
func (s *Service) ModelConfigured() bool {
	return s.llmClient != nil
}

func toolDefinitions() []llm.Tool {
	defs := tools.Definitions()
	out := make([]llm.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        string(d.Name),
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}
