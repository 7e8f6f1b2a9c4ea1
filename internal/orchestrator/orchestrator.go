// Package orchestrator runs one advisory conversation turn: input gate,
// answer strategies in order of preference, output grounding check.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MobiAdvisor-core/server/internal/agent/graph"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/comparison"
	"github.com/MobiAdvisor-core/server/internal/composer"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
	"github.com/MobiAdvisor-core/server/internal/guardrail"
	"github.com/MobiAdvisor-core/server/internal/intent"
	"github.com/MobiAdvisor-core/server/internal/metrics"
	"github.com/MobiAdvisor-core/server/internal/resolver"
	"github.com/MobiAdvisor-core/server/internal/retrieval"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	MaxQueryLength = 2000

	InvalidQueryMessage = "Please enter a question about mobile phones."
	RejectMessage       = "I'm sorry, I can only help with mobile phone shopping queries. How can I help you find the perfect phone?"
	DisclaimerMessage   = "I apologize, but I couldn't verify some information. Please try a more specific query."
	degradedMessage     = "I found %d phones matching your query. Please note that AI features are temporarily unavailable."

	// WarningRecords is added to comparisons of records that disagree with the catalog.
	WarningRecords = "Some phone details differ from the catalog"
)

// TurnRequest is one user turn. History is owned by the caller.
type TurnRequest struct {
	ConversationID string
	Query          string
	Filters        model.Filters
	History        []model.ConversationTurn
}

// Deps are the collaborators of an Orchestrator. Agent and Resolver may be
// nil; the turn then skips the agent or the entity correction.
type Deps struct {
	Agent       graph.Runner
	Intent      *intent.Parser
	Resolver    *resolver.Resolver
	Retrieval   *retrieval.Engine
	Composer    *composer.Composer
	Comparison  *comparison.Service
	InputGuard  *guardrail.InputGuard
	OutputGuard *guardrail.OutputGuard
}

type Orchestrator struct {
	deps Deps
}

func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Intent == nil:
		return nil, fmt.Errorf("orchestrator: intent parser is required")
	case deps.Retrieval == nil:
		return nil, fmt.Errorf("orchestrator: retrieval engine is required")
	case deps.Composer == nil:
		return nil, fmt.Errorf("orchestrator: composer is required")
	case deps.Comparison == nil:
		return nil, fmt.Errorf("orchestrator: comparison service is required")
	case deps.InputGuard == nil || deps.OutputGuard == nil:
		return nil, fmt.Errorf("orchestrator: input and output guards are required")
	}
	return &Orchestrator{deps: deps}, nil
}

// HandleTurn answers one turn. It never fails and never panics: every path
// ends in a well-formed answer.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (ans model.GroundedAnswer) {
	start := time.Now()
	query := strings.TrimSpace(req.Query)

	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Str("conversation_id", req.ConversationID).Msg("turn panicked")
			ans = o.fallback(ctx, query, req.History)
		}
		if ans.Phones == nil {
			ans.Phones = []model.Phone{}
		}
		ans.History = snapshot(req.History, query, ans)
		metrics.ObserveTurn(string(ans.Source), time.Since(start))
	}()

	if query == "" || utf8.RuneCountInString(query) > MaxQueryLength {
		err := errx.InvalidInput(InvalidQueryMessage)
		return model.GroundedAnswer{
			Message:   err.Message,
			Source:    model.SourceInvalidInput,
			ErrorKind: errx.KindOf(err),
		}
	}

	if v := o.deps.InputGuard.Check(query); !v.Allowed {
		metrics.GuardrailFailure(string(v.Category))
		logx.Info().Str("conversation_id", req.ConversationID).Str("category", string(v.Category)).Msg("query blocked")
		return model.GroundedAnswer{
			Message:   v.Message,
			Validated: true,
			Source:    model.SourceSafetyFilter,
			Blocked:   true,
			ErrorKind: errx.KindBlockedContent,
		}
	}

	ctxPhones := model.ContextPhones(req.History)
	if guardrail.IsBestQuery(query) && len(ctxPhones) > 0 {
		best := bestRated(ctxPhones)
		msg, _ := o.deps.Composer.Compose(ctx, query, []model.Phone{best}, req.History)
		return o.check(ctx, req, model.GroundedAnswer{
			Message: msg,
			Phones:  []model.Phone{best},
			Source:  model.SourceContext,
		})
	}

	if ans, ok := o.runAgent(ctx, req, query); ok {
		return o.check(ctx, req, ans)
	}
	if ans, ok := o.runPipeline(ctx, req, query, ctxPhones); ok {
		if ans.Source == model.SourcePipeline {
			return o.check(ctx, req, ans)
		}
		return ans
	}
	return o.fallback(ctx, query, req.History)
}

func (o *Orchestrator) runAgent(ctx context.Context, req TurnRequest, query string) (model.GroundedAnswer, bool) {
	if o.deps.Agent == nil {
		return model.GroundedAnswer{}, false
	}
	res, err := o.deps.Agent.Invoke(ctx, model.AgentInput{
		ConversationID: req.ConversationID,
		Query:          query,
		History:        req.History,
		Filters:        req.Filters,
	})
	if err != nil || res == nil {
		logx.Warn().Err(err).Str("stage", string(model.SourceAgent)).Msg("agent unavailable, using pipeline")
		metrics.Fallback(string(model.SourceAgent))
		return model.GroundedAnswer{}, false
	}
	logx.Debug().
		Int("tool_calls", res.ToolCalls).
		Float64("cost_usd", res.CostUSD).
		Int("phones", len(res.Phones)).
		Msg("agent answered")
	return model.GroundedAnswer{
		Message: res.Message,
		Phones:  res.Phones,
		Source:  model.SourceAgent,
	}, true
}

// runPipeline is the fixed parse, retrieve, compose sequence. It reports
// unavailable when retrieval had to fall back to keyword search.
func (o *Orchestrator) runPipeline(ctx context.Context, req TurnRequest, query string, ctxPhones []model.Phone) (ans model.GroundedAnswer, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Str("stage", string(model.SourcePipeline)).Msg("pipeline panicked")
			ans, ok = model.GroundedAnswer{}, false
		}
	}()

	in := o.deps.Intent.Parse(ctx, query, req.History)
	switch in.Task {
	case model.TaskReject:
		return model.GroundedAnswer{
			Message:   RejectMessage,
			Validated: true,
			Source:    model.SourcePipeline,
			ErrorKind: errx.KindBlockedContent,
		}, true
	case model.TaskGeneralQA:
		msg, err := o.deps.Composer.AnswerGeneral(ctx, query, req.History)
		if err != nil {
			return model.GroundedAnswer{}, false
		}
		return model.GroundedAnswer{Message: msg, Validated: true, Source: model.SourceGeneralQA}, true
	}

	if o.deps.Resolver != nil {
		in = o.deps.Resolver.CorrectIntent(ctx, in)
	}

	var phones []model.Phone
	if len(ctxPhones) > 0 && guardrail.IsFollowUp(query) && !in.HasEntities() {
		phones = ctxPhones
	} else {
		res := o.deps.Retrieval.Retrieve(ctx, retrieval.Request{Intent: in, Filters: req.Filters, Query: query})
		if res.Degraded {
			return model.GroundedAnswer{}, false
		}
		phones = res.Phones
		if guardrail.IsFollowUp(query) {
			phones = model.UniquePhones(ctxPhones, phones)
		}
	}

	msg, templated := o.deps.Composer.Compose(ctx, query, phones, req.History)
	if templated {
		metrics.Fallback("compose")
	}
	ans = model.GroundedAnswer{Message: msg, Phones: phones, Source: model.SourcePipeline}
	if len(phones) == 0 {
		ans.ErrorKind = errx.KindRetrievalEmpty
	}
	return ans, true
}

// fallback is the last resort once both strategies are unavailable. Anything
// short of a model-written general answer carries WarningDegraded.
func (o *Orchestrator) fallback(ctx context.Context, query string, history []model.ConversationTurn) model.GroundedAnswer {
	if guardrail.IsGeneralQA(query) {
		msg, err := o.deps.Composer.AnswerGeneral(ctx, query, history)
		if err == nil {
			return model.GroundedAnswer{Message: msg, Validated: true, Source: model.SourceGeneralQA}
		}
		uerr := errx.Upstream(err, "general answer unavailable")
		logx.Warn().Err(uerr).Str("stage", string(model.SourceGeneralQA)).Msg("general answer fallback failed")
		metrics.Fallback(string(model.SourceGeneralQA))
		return model.GroundedAnswer{
			Message:   msg,
			Validated: true,
			Warning:   retrieval.WarningDegraded,
			Source:    model.SourceGeneralQA,
			ErrorKind: errx.KindOf(uerr),
		}
	}

	phones, err := o.deps.Retrieval.KeywordSearch(ctx, query)
	if err != nil {
		logx.Error().Err(err).Str("stage", retrieval.StrategyKeyword).Msg("keyword fallback failed")
		metrics.Fallback(retrieval.StrategyKeyword)
		phones = []model.Phone{}
	}
	return model.GroundedAnswer{
		Message:   fmt.Sprintf(degradedMessage, len(phones)),
		Phones:    phones,
		Validated: true,
		Warning:   retrieval.WarningDegraded,
		Source:    model.SourceFallback,
		ErrorKind: errx.KindUpstreamUnavailable,
	}
}

// check runs the output guard. A failing answer is replaced by the
// disclaimer; the cause is only logged.
func (o *Orchestrator) check(ctx context.Context, req TurnRequest, ans model.GroundedAnswer) model.GroundedAnswer {
	verr := o.deps.OutputGuard.Validate(ctx, ans.Message, ans.Phones, guardrail.ValidateOptions{
		Query:         req.Query,
		StatedAmounts: guardrail.StatedAmounts(req.Query, req.Filters),
	})
	if verr == nil {
		ans.Validated = true
		return ans
	}
	metrics.GuardrailFailure(string(verr.ErrorType))
	logx.Warn().
		Str("conversation_id", req.ConversationID).
		Str("source", string(ans.Source)).
		Str("error_type", string(verr.ErrorType)).
		Str("reason", verr.Message).
		Str("answer", ans.Message).
		Msg("answer failed grounding check")
	ans.Message = DisclaimerMessage
	ans.Validated = false
	ans.ErrorKind = errx.KindHallucination
	return ans
}

// CompareRecords compares 2 to 4 phones.
func (o *Orchestrator) CompareRecords(ctx context.Context, phones []model.Phone) model.Comparison {
	mismatched := o.verifyRecords(ctx, phones)
	cmp := o.deps.Comparison.Compare(ctx, phones)
	if mismatched && cmp.Error == "" {
		if cmp.Warning != "" {
			cmp.Warning += "; "
		}
		cmp.Warning += WarningRecords
	}
	return cmp
}

// verifyRecords checks the price and battery of every catalog-backed record
// and reports whether any of them disagree with the catalog.
func (o *Orchestrator) verifyRecords(ctx context.Context, phones []model.Phone) bool {
	mismatched := false
	for _, p := range phones {
		if p.ID <= 0 {
			continue
		}
		price, battery := p.PriceINR, p.BatteryMAH
		verr := o.deps.OutputGuard.VerifySpec(ctx, guardrail.PhoneClaim{PhoneID: p.ID, PriceINR: &price, BatteryMAH: &battery})
		if verr == nil {
			continue
		}
		logx.Warn().Int64("phone_id", p.ID).Str("kind", string(verr.ErrorType)).Msg(verr.Message)
		if verr.ErrorType == errx.KindHallucination {
			metrics.GuardrailFailure(string(verr.ErrorType))
			mismatched = true
		}
	}
	return mismatched
}

// FactCheck checks a free-text price or battery claim about one phone.
func (o *Orchestrator) FactCheck(ctx context.Context, phoneID int64, claim string) (model.FactCheck, error) {
	ok, correction, err := o.deps.OutputGuard.CheckClaim(ctx, claim, phoneID)
	if err != nil {
		return model.FactCheck{}, err
	}
	return model.FactCheck{PhoneID: phoneID, Claim: claim, Accurate: ok, Correction: correction}, nil
}

// bestRated returns the highest-rated phone, the earlier one on ties.
func bestRated(phones []model.Phone) model.Phone {
	best := phones[0]
	for _, p := range phones[1:] {
		if p.UserRating > best.UserRating {
			best = p
		}
	}
	return best
}

func snapshot(history []model.ConversationTurn, query string, ans model.GroundedAnswer) []model.ConversationTurn {
	out := make([]model.ConversationTurn, 0, len(history)+2)
	out = append(out, history...)
	if query == "" {
		return out
	}
	return append(out,
		model.ConversationTurn{Role: model.RoleUser, Content: query},
		model.ConversationTurn{Role: model.RoleAssistant, Content: ans.Message, Phones: ans.Phones},
	)
}
