package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/settings"
	"go.uber.org/zap"
)

// =============================================================================
// RULE ENDPOINTS
// =============================================================================

// ListRules returns every bracket in scan order. ?model= filters by model.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}

	model := r.URL.Query().Get("model")
	dtos := make([]RuleDTO, 0, len(rules))
	for _, rule := range rules {
		if model != "" && rule.Model != model {
			continue
		}
		dtos = append(dtos, RuleDTO{Rule: rule, Label: rule.Label()})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRule appends a bracket.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := req.check(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return
	}

	rule, err := h.Store.SaveRule(r.Context(), req.rule(0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rule", err)
		return
	}
	h.log.Info("commission rule created", zap.Int64("id", rule.ID), zap.String("model", rule.Model))
	writeJSON(w, http.StatusCreated, RuleDTO{Rule: rule, Label: rule.Label()})
}

// UpdateRule replaces a bracket, keeping its position in the scan order.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	var req RuleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := req.check(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return
	}

	rule, err := h.Store.SaveRule(r.Context(), req.rule(id))
	if err != nil {
		writeError(w, statusFor(err), "Failed to save rule", err)
		return
	}
	h.log.Info("commission rule updated", zap.Int64("id", rule.ID))
	writeJSON(w, http.StatusOK, RuleDTO{Rule: rule, Label: rule.Label()})
}

// DeleteRule removes a bracket.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteRule(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to delete rule", err)
		return
	}
	h.log.Info("commission rule deleted", zap.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func ruleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid rule id", err)
		return 0, false
	}
	return id, true
}

// =============================================================================
// TARGET ENDPOINTS
// =============================================================================

// ListTargets returns stored monthly targets in month order.
func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.Store.ListTargets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list targets", err)
		return
	}
	if targets == nil {
		targets = []commission.MonthlyTarget{}
	}
	writeJSON(w, http.StatusOK, targets)
}

// SaveTarget upserts the targets of one month.
func (h *Handler) SaveTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if (req.Collective != nil && req.Collective.IsNegative()) || (req.Individual != nil && req.Individual.IsNegative()) {
		writeError(w, http.StatusBadRequest, "Targets must not be negative", nil)
		return
	}

	saved, err := h.Store.SaveTarget(r.Context(), req.target())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save target", err)
		return
	}
	h.log.Info("monthly target saved", zap.String("month", saved.Key().String()))
	writeJSON(w, http.StatusOK, saved)
}

// DeleteTarget removes one month's targets.
func (h *Handler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(chi.URLParam(r, "year"))
	month, merr := strconv.Atoi(chi.URLParam(r, "month"))
	if yerr != nil || merr != nil {
		writeError(w, http.StatusBadRequest, "Invalid year or month", nil)
		return
	}
	if err := h.Store.DeleteTarget(r.Context(), year, month); err != nil {
		writeError(w, statusFor(err), "Failed to delete target", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTING ENDPOINTS
// =============================================================================

// ListSettings returns every stored setting with its decoded value.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.ListSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings", err)
		return
	}
	dtos := make([]SettingDTO, len(rows))
	for i, s := range rows {
		dtos[i] = toSettingDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateSetting edits one known setting. The new value must decode and the
// resulting configuration must still validate; on success the cached
// snapshot is invalidated so the next run sees the change.
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := strings.TrimSpace(chi.URLParam(r, "key"))

	var req SettingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	current, err := h.Store.GetSetting(ctx, key)
	if err != nil {
		if !commission.IsNotFound(err) {
			writeError(w, http.StatusInternalServerError, "Failed to load setting", err)
			return
		}
		def, known := settings.DefaultFor(key)
		if !known {
			writeError(w, http.StatusNotFound, "Unknown setting", nil)
			return
		}
		current = def
	}

	updated := current
	updated.Value = req.Value
	if req.ValueType != "" {
		updated.ValueType = req.ValueType
	}
	if req.Description != "" {
		updated.Description = req.Description
	}
	if err := settings.Validate(updated); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid setting value", err)
		return
	}

	all, err := h.Store.ListSettings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings", err)
		return
	}
	if _, err := settings.Build(replaceSetting(all, updated)); err != nil {
		writeError(w, http.StatusBadRequest, "Setting would make the configuration invalid", err)
		return
	}

	if err := h.Store.SaveSetting(ctx, updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save setting", err)
		return
	}
	if err := h.Settings.Invalidate(ctx); err != nil {
		h.log.Error("setting saved but cache invalidation failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Setting saved but cache invalidation failed", err)
		return
	}

	h.log.Info("setting updated", zap.String("key", key), zap.String("value", updated.Value))
	writeJSON(w, http.StatusOK, toSettingDTO(updated))
}

func replaceSetting(rows []settings.Setting, s settings.Setting) []settings.Setting {
	out := make([]settings.Setting, 0, len(rows)+1)
	replaced := false
	for _, row := range rows {
		if row.Key == s.Key {
			row = s
			replaced = true
		}
		out = append(out, row)
	}
	if !replaced {
		out = append(out, s)
	}
	return out
}
