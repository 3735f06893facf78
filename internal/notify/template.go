package notify

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"
	"text/template"
	"time"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

// TimestampLayout is the provider's "HH:MM DD.MM.YYYY" stamp.
const TimestampLayout = "15:04 02.01.2006"

const (
	sectionBreak = "\n\n━━━━━━━━━━━━━━━━━━━━\n\n"
	paragraph    = "\n\n"
)

const messageTemplates = `
{{- define "emergency" -}}
🚨 <b>УВАГА! Аварійне відключення!</b>

ℹ️ <b>Причина:</b>
{{or .SubType "Невідома" | esc}}.

🔴 <b>Час початку:</b>
{{or .StartTimestamp "Невідомий" | esc}}

🟢 <b>Час відновлення:</b>
{{or .EndTimestamp "Невідомий" | esc}}
{{- end}}

{{- define "scheduled" -}}
📊 <b>Черга:</b>
{{esc .QueueGroup}}
{{- with .Current}}

⚡️ <b>Поточне відключення</b>

🕐 <b>Час:</b>
{{.TimeRange}}

ℹ️ <b>Тип:</b>
{{esc .Description}}
{{- end}}
{{- if and .Current .Next}}

—————————————
{{- end}}
{{- with .Next}}

⏰ <b>Наступне відключення</b>

🕐 <b>Час:</b>
{{.TimeRange}}

ℹ️ <b>Тип:</b>
{{esc .Description}}
{{- end}}
{{- end}}

{{- define "window-ended" -}}
✅ <b>Відключення за графіком завершено!</b>

🕐 <b>Час:</b>
{{.TimeRange}}

⏱ <b>Тривалість:</b>
{{duration .Range}}
{{- end}}

{{- define "emergency-ended" -}}
✅ <b>Екстрене відключення завершено!</b>

ℹ️ <b>Тип:</b>
{{or .Emergency.SubType "Невідомо" | esc}}

🔴 <b>Початок:</b>
{{or .Emergency.StartTimestamp "Невідомо" | esc}}

🟢 <b>Завершено:</b>
{{or .Emergency.EndTimestamp "Невідомо" | esc}}
{{- if .Duration}}

⏱ <b>Тривалість:</b>
{{.Duration}}
{{- end}}
{{- end}}

{{- define "next" -}}
⏰ <b>Наступне відключення</b>

🕐 <b>Час:</b>
{{.TimeRange}}

⏱ <b>Тривалість:</b>
{{duration .Range}}
{{- end}}

{{- define "footer" -}}
⏰ <b>Час оновлення інформації:</b>
{{esc .InfoUpdated}}
⏰ <b>Час оновлення повідомлення:</b>
{{.MessageUpdated}}
{{- end}}

{{- define "summary-header" -}}
🌅 <b>Доброго ранку!</b>
{{- end}}

{{- define "summary-none" -}}
✅ <b>Відмінні новини!</b>

Відключень електроенергії на сьогодні не заплановано.

⚡️ Можете планувати свій день без обмежень!
{{- end}}

{{- define "summary-emergency" -}}
📋 <b>Інформація про відключення на сьогодні:</b>

⚠️ <b>Статус:</b>
Аварійне відключення

ℹ️ <b>Причина:</b>
{{or .SubType "Невідома" | esc}}.

🔴 <b>Час початку:</b>
{{or .StartTimestamp "Невідомий" | esc}}

🟢 <b>Час відновлення:</b>
{{or .EndTimestamp "Невідомий" | esc}}
{{- end}}

{{- define "summary-schedule" -}}
📊 <b>Черга:</b>
{{esc .QueueGroup}}

🕐 <b>Графік відключень:</b>
{{.Description}}
{{- end}}

{{- define "summary-footer" -}}
⏰ <b>Час формування повідомлення:</b>
{{.}}
{{- end}}
`

type emergencyEnded struct {
	Emergency *domain.EmergencyOutage
	Duration  string
}

type footer struct {
	InfoUpdated    string
	MessageUpdated string
}

// Renderer turns decisions into Ukrainian HTML messages.
type Renderer struct {
	tpl *template.Template
	loc *time.Location
}

// NewRenderer parses the message templates. Timestamps are shown in loc.
func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	tpl, err := template.New("outage-notification").Funcs(template.FuncMap{
		"esc": html.EscapeString,
		"duration": func(r domain.ClockRange) string {
			return domain.FormatDuration(r.Duration())
		},
	}).Parse(messageTemplates)
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, loc: loc}, nil
}

type section struct {
	name string
	data any
}

// Render builds the message for a sending action.
func (r *Renderer) Render(action domain.Action) (string, error) {
	if r == nil || r.tpl == nil {
		return "", errors.New("notification renderer: nil")
	}
	res := action.Result
	var sections []section
	switch action.Kind {
	case domain.ActionOutageEnded:
		if action.EndedWindow != nil {
			sections = append(sections, section{"window-ended", action.EndedWindow})
		}
		if e := action.EndedEmergency; e != nil {
			sections = append(sections, section{"emergency-ended", emergencyEnded{Emergency: e, Duration: r.emergencyDuration(e)}})
		}
		if next := res.Next(); next != nil {
			sections = append(sections, section{"next", next})
		}
		if res.Emergency != nil {
			sections = append(sections, section{"emergency", res.Emergency})
		}
	case domain.ActionEmergencyUpdate, domain.ActionScheduledUpdate, domain.ActionCombinedUpdate:
		if res.Emergency != nil {
			sections = append(sections, section{"emergency", res.Emergency})
		}
		if res.Scheduled.Active() {
			sections = append(sections, section{"scheduled", res.Scheduled})
		}
	default:
		return "", fmt.Errorf("notification renderer: action %q has no message", action.Kind)
	}

	body, err := r.join(sections, sectionBreak)
	if err != nil {
		return "", err
	}
	stamp := r.stamp(action.DecidedAt)
	info := res.UpdateTimestamp
	if info == "" {
		info = stamp
	}
	foot, err := r.exec("footer", footer{InfoUpdated: info, MessageUpdated: stamp})
	if err != nil {
		return "", err
	}
	if body == "" {
		return foot, nil
	}
	return body + paragraph + foot, nil
}

// RenderSummary builds the morning summary message.
func (r *Renderer) RenderSummary(s domain.DailySummary, now time.Time) (string, error) {
	if r == nil || r.tpl == nil {
		return "", errors.New("notification renderer: nil")
	}
	sections := []section{{name: "summary-header"}}
	if !s.HasOutage() {
		sections = append(sections, section{name: "summary-none"})
	}
	if s.Emergency != nil {
		sections = append(sections, section{"summary-emergency", s.Emergency})
	}
	if s.Schedule != nil && len(s.Schedule.Periods) > 0 {
		sections = append(sections, section{"summary-schedule", s.Schedule})
	}
	sections = append(sections, section{"summary-footer", r.stamp(now)})
	return r.join(sections, paragraph)
}

func (r *Renderer) join(sections []section, sep string) (string, error) {
	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		out, err := r.exec(sec.name, sec.data)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, sep), nil
}

func (r *Renderer) exec(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func (r *Renderer) stamp(t time.Time) string {
	return t.In(r.loc).Format(TimestampLayout)
}

// emergencyDuration returns the announced length of an emergency, or "" when
// either stamp is missing or unparseable.
func (r *Renderer) emergencyDuration(e *domain.EmergencyOutage) string {
	start, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(e.StartTimestamp), r.loc)
	if err != nil {
		return ""
	}
	end, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(e.EndTimestamp), r.loc)
	if err != nil || !end.After(start) {
		return ""
	}
	return domain.FormatDuration(end.Sub(start))
}
