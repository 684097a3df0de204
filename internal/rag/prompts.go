package rag

import (
	"fmt"
	"strings"
)

// Prompt templates mirror the deployed Vietnamese nutrition-advisor prompts.

func chatSystemPrompt(context, history string) string {
	var b strings.Builder
	b.WriteString("Bạn là một chuyên gia dinh dưỡng thân thiện và chuyên nghiệp, " +
		"luôn trả lời chi tiết và tự nhiên BẰNG TIẾNG VIỆT. " +
		"Hãy sử dụng kiến thức dinh dưỡng của bạn để tư vấn về chế độ ăn uống, " +
		"sức khỏe, và các vấn đề đặc biệt. " +
		"Khi không chắc chắn, hãy thừa nhận và đề xuất tham khảo thêm ý kiến " +
		"của bác sĩ hoặc chuyên gia dinh dưỡng.\n\n")
	if context != "" {
		b.WriteString("Tài liệu tham khảo:\n")
		b.WriteString(context)
		b.WriteString("\n\n")
	}
	b.WriteString("Lịch sử trò chuyện: ")
	b.WriteString(history)
	b.WriteString("\n")
	return b.String()
}

// MealSuggestionPrompt asks for three meals as fenced JSON so the reply can
// be parsed against the MealPlan schema.
func MealSuggestionPrompt(healthInfo, preferences, input string) string {
	return fmt.Sprintf(
		"Bạn là chuyên gia ẩm thực và dinh dưỡng. Nhiệm vụ của bạn là gợi ý món ăn "+
			"phù hợp dựa trên thông tin sức khỏe và sở thích của người dùng. "+
			"Hãy gợi ý 3 món ăn chi tiết với nguyên liệu cụ thể.\n\n"+
			"Thông tin sức khỏe: %s\n"+
			"Sở thích: %s\n\n"+
			"%s\n\n"+
			"Trả lời BẰNG TIẾNG VIỆT theo định dạng JSON như sau:\n"+
			"```json\n"+
			"{\n"+
			"  \"analysis\": \"Phân tích ngắn gọn nhu cầu dinh dưỡng\",\n"+
			"  \"meals\": [\n"+
			"    {\n"+
			"      \"name\": \"Tên món ăn\",\n"+
			"      \"ingredients\": [\n"+
			"        {\"name\": \"Nguyên liệu 1\", \"quantity\": \"100g\"},\n"+
			"        {\"name\": \"Nguyên liệu 2\", \"quantity\": \"2 muỗng canh\"}\n"+
			"      ],\n"+
			"      \"benefits\": \"Lợi ích dinh dưỡng\",\n"+
			"      \"preparation\": \"Cách chế biến ngắn gọn\"\n"+
			"    }\n"+
			"  ],\n"+
			"  \"advice\": \"Lời khuyên bổ sung\"\n"+
			"}\n"+
			"```",
		healthInfo, preferences, input,
	)
}

// TranslationPrompt matches the deployed translation instruction verbatim so
// the model returns the bare translated text.
func TranslationPrompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"Translate this text from %s to %s accurately, "+
			"ensuring proper Vietnamese characters if translating to Vietnamese, "+
			"and return only the translated text without additional explanation: '%s'",
		sourceLang, targetLang, text,
	)
}
