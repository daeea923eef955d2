package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hsinyuc/linecast/internal/domain/message"
)

func TestFormat_AppendsAmount(t *testing.T) {
	got := Format("感謝付款", message.CurrencyTWD, "5000")
	assert.Equal(t, "感謝付款\n\n金額: NT$5000", got)
}

func TestFormat_AmountNotDuplicated(t *testing.T) {
	once := Format("感謝付款", message.CurrencyTWD, "5000")
	twice := Format(once, message.CurrencyTWD, "5000")
	assert.Equal(t, once, twice)
}

func TestFormat_AmountAlreadyEmbedded(t *testing.T) {
	got := Format("請支付 NT$5000 謝謝", message.CurrencyTWD, "5000")
	assert.Equal(t, "請支付 NT$5000 謝謝", got)
}

func TestFormat_CurrencySymbols(t *testing.T) {
	assert.Equal(t, "pay\n\n金額: US$12.5", Format("pay", message.CurrencyUSD, "12.5"))
	assert.Equal(t, "pay\n\n金額: AU$80", Format("pay", message.CurrencyAUD, "80"))
}

func TestFormat_UnknownCurrencyBareAmount(t *testing.T) {
	got := Format("pay", message.Currency("JPY"), "300")
	assert.Equal(t, "pay\n\n金額: 300", got)
}

func TestFormat_MissingEitherFieldSkipsAnnotation(t *testing.T) {
	assert.Equal(t, "pay", Format("pay", "", "300"))
	assert.Equal(t, "pay", Format("pay", message.CurrencyTWD, ""))
}

func TestBreakSentences_InsertsBreaks(t *testing.T) {
	got := Format("已收到款項。發票將另行寄送！謝謝", "", "")
	assert.Equal(t, "已收到款項。\n發票將另行寄送！\n謝謝", got)
}

func TestBreakSentences_Idempotent(t *testing.T) {
	body := "已收到款項。發票將另行寄送！謝謝？好. Next one."
	once := Format(body, "", "")
	twice := Format(once, "", "")
	assert.Equal(t, once, twice)
}

func TestBreakSentences_LatinStopNeedsWhitespace(t *testing.T) {
	// decimals and bare stops stay intact
	assert.Equal(t, "price is 12.5 today", Format("price is 12.5 today", "", ""))
	// a stop followed by a space becomes a break
	assert.Equal(t, "Done.\nNext", Format("Done. Next", "", ""))
}

func TestBreakSentences_TrailingPunctuationUnchanged(t *testing.T) {
	assert.Equal(t, "謝謝。", Format("謝謝。", "", ""))
}
