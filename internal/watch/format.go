package watch

import (
	"fmt"
	"time"

	"fxnewsbot/internal/calendar"
	"fxnewsbot/pkg/tgtext"
)

func impactEmoji(i calendar.Impact) string {
	switch i {
	case calendar.ImpactHigh:
		return "🔴"
	case calendar.ImpactMedium:
		return "🟠"
	default:
		return "🟡"
	}
}

// biasText renders the directional read the way the channel phrases it.
func biasText(b calendar.Bias) tgtext.H {
	switch b.Outcome {
	case calendar.OutcomeMatched:
		return "⚪️ النتيجة طابقت التوقعات (تأثير محايد)."
	case calendar.OutcomeDirectional:
		if b.Currency == calendar.DirectionUp {
			return "🇺🇸 إيجابي للدولار\n📉 سلبي للذهب - هبوط محتمل ⬇️"
		}
		return "🇺🇸 سلبي للدولار\n📈 إيجابي للذهب - صعود محتمل ⬆️"
	default:
		return "⚪️ النتيجة متعادلة أو غير واضحة."
	}
}

// FormatResult renders the release alert (HTML parse mode).
func FormatResult(ev calendar.Event, bias calendar.Bias, channelTag string) string {
	return tgtext.Lines(
		tgtext.Raw(impactEmoji(ev.Impact))+" "+tgtext.Raw("الخبر: ")+tgtext.B(ev.Name),
		tgtext.Raw("العملة: ")+tgtext.Esc(ev.Currency),
		tgtext.Raw("التأثير: ")+tgtext.Esc(string(ev.Impact)),
		tgtext.Raw("الحالي: ")+tgtext.Code(ev.ActualText),
		tgtext.Raw("المتوقع: ")+tgtext.Code(ev.ForecastText),
		tgtext.Raw("السابق: ")+tgtext.Code(ev.PreviousText),
		tgtext.Raw("التحليل:"),
		biasText(bias),
		tgtext.Esc(channelTag),
	).String()
}

// FormatPreAlert renders the heads-up alert sent before the release.
func FormatPreAlert(ev calendar.Event, until time.Duration, channelTag string) string {
	minutes := int(until.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return tgtext.Lines(
		tgtext.Raw("⏰ ")+tgtext.Raw("تنبيه مسبق - ")+tgtext.B(ev.Name)+tgtext.Raw(fmt.Sprintf(" بعد %d دقيقة", minutes)),
		tgtext.Raw("التوقيت: ")+tgtext.Esc(ev.Time),
		tgtext.Raw("توقع: ")+tgtext.Code(ev.ForecastText),
		tgtext.Esc(channelTag),
	).String()
}

// FormatSession renders a fixed-time session announcement.
func FormatSession(name, description, channelTag string) string {
	return tgtext.Lines(
		tgtext.B(name),
		tgtext.Esc(description),
		tgtext.Raw("⚠️ انتبه لتحركات الذهب والدولار!"),
		tgtext.Esc(channelTag),
	).String()
}
