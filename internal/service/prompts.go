package service

// Prompts holds the fixed instructions sent with each route.
type Prompts struct {
	// TextSystem opens every text conversation.
	TextSystem string
	// ImageSystem opens a standalone image analysis.
	ImageSystem string
	// ImageAnalysis is sent alongside an image that arrives without text.
	ImageAnalysis string
}

// DefaultPrompts returns the bottle identification assistant prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		TextSystem: "You are an expert alcohol assistant. Answer questions about spirits, wine, beer, " +
			"cocktails and bottles the user has shown you. Keep answers concise and practical.",
		ImageSystem:   "You are an expert alcohol assistant.",
		ImageAnalysis: imageAnalysisPrompt,
	}
}

const imageAnalysisPrompt = "You are an expert alcohol identification assistant. " +
	"Analyze the given image of an alcohol bottle. Provide answers ONLY in this exact format with emojis:\n\n" +
	"🔍 Identified alcohol: <name or 'Not specified'>\n" +
	"🌍 Origin: <origin or 'Not specified'>\n" +
	"🍸 Alcohol Content: <percentage or 'Not specified'>\n" +
	"🌾 Main Ingredient: <ingredient or 'Not specified'>\n" +
	"💅 Tasting Notes: <notes or 'Not specified'>\n" +
	"🔹 Similar kind of alcohol (at least 3): <list or 'Not specified'>\n" +
	"🔗 Want to mix a cocktail? Try a recipe: <recipe or 'Not specified'>\n" +
	"✨ AI Bot Interactive Features: <features or 'Not specified'>\n" +
	"📊 Confidence Level: <0-100% or 'Not specified'>\n" +
	"🏷 Brand Logo & History: <info or 'Not specified'>\n" +
	"🎥 YouTube Link: <link or 'Not specified'>\n" +
	"📦 Buy Online Link: <link or 'Not specified'>\n" +
	"🔄 Ask Again: <encourage user to ask again or 'Not specified'>\n\n" +
	"If you are not sure about any field, write 'Not specified'."
