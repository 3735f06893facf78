package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

func decidedAt(t *testing.T) time.Time {
	return time.Date(2025, time.November, 9, 11, 5, 0, 0, kyiv(t))
}

// assertOrder checks that each fragment occurs in text after the previous one.
func assertOrder(t *testing.T, text string, fragments ...string) {
	t.Helper()
	pos := 0
	for _, f := range fragments {
		i := strings.Index(text[pos:], f)
		if !assert.GreaterOrEqual(t, i, 0, "missing %q after offset %d in:\n%s", f, pos, text) {
			return
		}
		pos += i + len(f)
	}
}

func TestRender_ScheduledUpdate(t *testing.T) {
	action := domain.Action{
		Kind: domain.ActionScheduledUpdate,
		Result: domain.OutageResult{
			Scheduled: &domain.ScheduledWindow{
				QueueGroup: "GPV1.2",
				Current:    outageWindow(hm(11, 0), hm(12, 0), "Світла немає"),
				Next:       outageWindow(hm(17, 0), hm(18, 0), "Світла немає"),
			},
			UpdateTimestamp: "08:18 09.11.2025",
		},
		DecidedAt: decidedAt(t),
	}

	text, err := newTestRenderer(t).Render(action)
	require.NoError(t, err)

	assertOrder(t, text,
		"<b>Черга:</b>\nGPV1.2",
		"<b>Поточне відключення</b>",
		"<b>Час:</b>\n11:00-12:00",
		"<b>Тип:</b>\nСвітла немає",
		"—————————————",
		"<b>Наступне відключення</b>",
		"<b>Час:</b>\n17:00-18:00",
		"<b>Час оновлення інформації:</b>\n08:18 09.11.2025",
		"<b>Час оновлення повідомлення:</b>\n11:05 09.11.2025",
	)
	assert.NotContains(t, text, "Аварійне")
	assert.NotContains(t, text, "━━━━")
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestRender_NextOnlyHasNoSeparator(t *testing.T) {
	action := domain.Action{
		Kind: domain.ActionScheduledUpdate,
		Result: domain.OutageResult{Scheduled: &domain.ScheduledWindow{
			QueueGroup: "GPV1.2",
			Next:       outageWindow(hm(17, 0), hm(18, 0), "Світла немає"),
		}},
		DecidedAt: decidedAt(t),
	}
	text, err := newTestRenderer(t).Render(action)
	require.NoError(t, err)
	assert.NotContains(t, text, "—————————————")
	assert.NotContains(t, text, "Поточне")
	assertOrder(t, text, "<b>Час оновлення інформації:</b>\n11:05 09.11.2025")
}

func TestRender_CombinedUpdate(t *testing.T) {
	action := domain.Action{
		Kind: domain.ActionCombinedUpdate,
		Result: domain.OutageResult{
			Emergency: &domain.EmergencyOutage{
				SubType:        "Екстренні відключення <Аварійне>",
				StartTimestamp: "07:55 09.11.2025",
			},
			Scheduled: &domain.ScheduledWindow{
				QueueGroup: "GPV1.2",
				Next:       outageWindow(hm(17, 0), hm(18, 0), "Світла немає"),
			},
		},
		DecidedAt: decidedAt(t),
	}
	text, err := newTestRenderer(t).Render(action)
	require.NoError(t, err)

	assertOrder(t, text,
		"<b>УВАГА! Аварійне відключення!</b>",
		"<b>Причина:</b>\nЕкстренні відключення &lt;Аварійне&gt;.",
		"<b>Час початку:</b>\n07:55 09.11.2025",
		"<b>Час відновлення:</b>\nНевідомий",
		"━━━━━━━━━━━━━━━━━━━━",
		"<b>Черга:</b>\nGPV1.2",
	)
}

func TestRender_WindowEnded(t *testing.T) {
	action := domain.Action{
		Kind:        domain.ActionOutageEnded,
		EndedWindow: outageWindow(hm(9, 30), hm(12, 0), "Світла немає"),
		Result: domain.OutageResult{Scheduled: &domain.ScheduledWindow{
			QueueGroup: "GPV1.2",
			Next:       outageWindow(hm(17, 0), hm(18, 0), "Світла немає"),
		}},
		DecidedAt: decidedAt(t),
	}
	text, err := newTestRenderer(t).Render(action)
	require.NoError(t, err)

	assertOrder(t, text,
		"<b>Відключення за графіком завершено!</b>",
		"<b>Час:</b>\n09:30-12:00",
		"<b>Тривалість:</b>\n2 год 30 хв",
		"━━━━━━━━━━━━━━━━━━━━",
		"<b>Наступне відключення</b>",
		"<b>Час:</b>\n17:00-18:00",
		"<b>Тривалість:</b>\n1 год",
	)
}

func TestRender_EmergencyEnded(t *testing.T) {
	action := domain.Action{
		Kind: domain.ActionOutageEnded,
		EndedEmergency: &domain.EmergencyOutage{
			SubType:        "Екстренні відключення",
			StartTimestamp: "07:55 20.01.2026",
			EndTimestamp:   "12:00 20.01.2026",
		},
		DecidedAt: decidedAt(t),
	}
	text, err := newTestRenderer(t).Render(action)
	require.NoError(t, err)

	assertOrder(t, text,
		"<b>Екстрене відключення завершено!</b>",
		"<b>Тип:</b>\nЕкстренні відключення",
		"<b>Початок:</b>\n07:55 20.01.2026",
		"<b>Завершено:</b>\n12:00 20.01.2026",
		"<b>Тривалість:</b>\n4 год 5 хв",
	)
}

func TestRender_EmergencyEndedWithoutParseableStamps(t *testing.T) {
	action := domain.Action{
		Kind:           domain.ActionOutageEnded,
		EndedEmergency: &domain.EmergencyOutage{SubType: "X", StartTimestamp: "сьогодні"},
		DecidedAt:      decidedAt(t),
	}
	text, err := newTestRenderer(t).Render(action)
	require.NoError(t, err)
	assert.NotContains(t, text, "Тривалість")
	assert.Contains(t, text, "<b>Завершено:</b>\nНевідомо")
}

func TestRender_NoneIsAnError(t *testing.T) {
	_, err := newTestRenderer(t).Render(domain.Action{Kind: domain.ActionNone})
	assert.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	r := newTestRenderer(t)
	now := time.Date(2025, time.November, 9, 7, 0, 0, 0, kyiv(t))

	t.Run("no outages", func(t *testing.T) {
		text, err := r.RenderSummary(domain.DailySummary{}, now)
		require.NoError(t, err)
		assertOrder(t, text,
			"<b>Доброго ранку!</b>",
			"<b>Відмінні новини!</b>",
			"<b>Час формування повідомлення:</b>\n07:00 09.11.2025",
		)
	})

	t.Run("schedule and emergency", func(t *testing.T) {
		s := domain.DailySummary{
			Emergency: &domain.EmergencyOutage{SubType: "Аварія"},
			Schedule: &domain.DaySchedule{
				QueueGroup:  "GPV1.2",
				Periods:     []domain.OutagePeriod{{StartHour: 2, EndHour: 4}},
				Description: "01:00-04:00, 11:00-12:00",
			},
		}
		text, err := r.RenderSummary(s, now)
		require.NoError(t, err)
		assert.NotContains(t, text, "Відмінні новини")
		assertOrder(t, text,
			"<b>Доброго ранку!</b>",
			"<b>Причина:</b>\nАварія.",
			"<b>Черга:</b>\nGPV1.2",
			"<b>Графік відключень:</b>\n01:00-04:00, 11:00-12:00",
			"<b>Час формування повідомлення:</b>",
		)
	})
}
