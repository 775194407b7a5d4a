package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFullIntroduction(t *testing.T) {
	text := ConversationText([]string{
		"Xin chào, tôi là Nguyễn Văn An.",
		"Email của tôi là an.nguyen@gmail.com, sđt 0912345678.",
		"Tôi làm việc tại FPT Software",
	})

	got := Extract(text)

	assert.Equal(t, "nguyễn văn an", got.Name)
	assert.Equal(t, "an.nguyen@gmail.com", got.Email)
	assert.Equal(t, "0912345678", got.PhoneNumber)
	assert.Equal(t, "fpt software", got.Company)
	assert.Empty(t, got.Position)
}

func TestExtractInternationalPhoneAndShortCompany(t *testing.T) {
	got := Extract("liên hệ +84987654321 nhé, mình ở cty abc xyz")

	assert.Equal(t, "+84987654321", got.PhoneNumber)
	assert.Equal(t, "abc xyz", got.Company)
	assert.Empty(t, got.Email)
	assert.Empty(t, got.Name)
}

func TestExtractRejectsNonMobilePrefix(t *testing.T) {
	got := Extract("số bàn 0212345678")
	assert.Empty(t, got.PhoneNumber)
}

func TestExtractNothing(t *testing.T) {
	assert.True(t, Extract("cho mình xem menu").IsEmpty())
}

func TestExtractIsIdempotent(t *testing.T) {
	text := ConversationText([]string{"Tôi là Lan", "lan@example.vn", "0398765432", "ngành bán lẻ"})
	first := Extract(text)
	second := Extract(text)
	assert.Equal(t, first, second)
	assert.Equal(t, "bán lẻ", first.Company)
}

func TestMissingFields(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"nothing known", "xin chào shop", []string{FieldEmail, FieldPhone, FieldName, FieldCompany}},
		{"phone only", "cho mình hỏi giá bánh, sdt 0901234567", []string{FieldEmail, FieldName, FieldCompany}},
		{"keyword cues count", "tên mình là hà, email gửi sau, phone gửi sau, công ty nhỏ", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MissingFields(tc.text))
		})
	}
}

func TestMergeKeepsExistingValues(t *testing.T) {
	base := Fields{Name: "Anh", Email: "a@b.com", PhoneNumber: "0901234567"}
	update := Fields{Name: "Anh"}

	got := Merge(base, update)

	assert.Equal(t, Fields{Name: "Anh", Email: "a@b.com", PhoneNumber: "0901234567"}, got)
}

func TestMergeOverwritesNonEmpty(t *testing.T) {
	got := Merge(Fields{Name: "Anh", Company: "Old"}, Fields{Company: "New", Position: "CTO"})
	assert.Equal(t, Fields{Name: "Anh", Company: "New", Position: "CTO"}, got)
}

func TestQualityScore(t *testing.T) {
	assert.Equal(t, 5, QualityScore("good"))
	assert.Equal(t, 3, QualityScore("ok"))
	assert.Equal(t, 1, QualityScore("spam"))
	assert.Equal(t, 3, QualityScore("excellent"))
	assert.Equal(t, 3, QualityScore(""))
	assert.Equal(t, 5, QualityScore(" GOOD "))
}

func TestNormalizeQuality(t *testing.T) {
	for _, score := range []int{1, 3, 5} {
		assert.Equal(t, score, NormalizeQuality(score))
	}
	for _, score := range []int{0, 2, 4, 6, -1} {
		assert.Equal(t, QualityOK, NormalizeQuality(score))
	}
}
