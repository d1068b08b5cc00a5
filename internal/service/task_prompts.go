package service

import (
	"fmt"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

const cocktailSchema = `{
  "name": "String",
  "alcohol_content": "String",
  "type": "String",
  "description": "String",
  "image": "String",
  "flavor_profile": "String",
  "strength": "String",
  "difficulty": "String",
  "glass": "String",
  "rating": {"score": Float, "total_ratings": Integer},
  "tags": ["String"],
  "ingredients": [{"name": "String", "amount": "String", "category": "String"}],
  "garnish": ["String"],
  "instructions": {
    "how_to_make": "String",
    "steps": [{"step": Integer, "title": "String", "instruction": "String", "tip": "String"}]
  },
  "variations": [{"name": "String", "description": "String", "key_ingredient": "String"}],
  "serving_info": {"best_time": "String", "occasion": "String", "temperature": "String", "garnish_placement": "String"},
  "nutritional_info": {"calories": Integer, "alcohol_content": "String", "sugar_content": "String"},
  "pairing_recommendations": [{"category": "String", "items": ["String"], "emoji": "String"}],
  "professional_tips": ["String"],
  "history": {"origin": "String", "creator": "String", "year_created": "String", "story": "String"}
}`

func cocktailPrompt(description string) string {
	return fmt.Sprintf(`You are a professional mixologist and beverage expert.

Analyze the alcohol bottle shown in this image.

Use the following user description for extra context: %q.

Based on this, generate a complete structured JSON object that includes accurate cocktail metadata, flavor insights, mixology steps, and pairing suggestions.

Output ONLY valid JSON. Do NOT include explanations, markdown, or any extra text.

The JSON schema must exactly match this structure:
%s`, description, cocktailSchema)
}

const recipeCardPrompt = `You are a professional bartender and drinks expert. Based ONLY on the image of an alcohol bottle I uploaded, generate a full cocktail or drink recipe in this exact visual structure and format:

---
[Alcohol Name]
Alcohol Content: [how much alcohol the bottle contains]
Ingredient List: [all ingredients used in the drink]
Flavor Profile: [Sweet/Bitter/Citrusy/etc.]
Drink Strength: [Light/Medium/Strong]
Glass Type: [e.g., Old-Fashioned, Highball, Margarita]

⭐ Rating (e.g. 4.7/5) (number of reviews)

🔽 Servings: 4
---

### Step - 01
Ingredients
- [Ingredient and amount]

### Step - 02
Prepare the Glass
- [Instruction]

### Step - 03
Mix the Ingredients
- [Instruction]
💡 *Tip: [Tip here]*

### Step - 04
Strain & Serve
- [Instruction]

### Step - 05
Garnish & Enjoy
- [Instruction]

Only output the formatted recipe. Do not explain anything else.`

const recommendationSystem = "You are a culinary and mixology expert specializing in local food and drink recommendations."

func recommendationPrompt(q domain.DrinkQuery) string {
	return fmt.Sprintf(`Based on the mood %q, weather %q, and location %q, suggest a location-specific alcoholic drink and suitable food pairings.

The drink should reflect the local culture or ingredients of %s. Return your result in this exact JSON format:

{
  "drink": {
    "name": str,
    "type": str,
    "alcohol_base": str,
    "description": str,
    "alcohol_content": str
  },
  "food_pairings": [
    {
      "name": str,
      "description": str
    }
  ]
}

Only return the JSON object. Do not include markdown or explanations.`, q.Mood, q.Weather, q.Location, q.Location)
}

const brandsSystem = "You are a helpful assistant that replies with JSON only."

func brandsPrompt(location string) string {
	return fmt.Sprintf(`Based on the location %q, list 5-6 well-known alcohol brands that are popular and commonly available there.

Prioritize local or nationally produced brands over international ones.
Only include internationally known brands if they are very commonly consumed in that region.

For each, include:
- brand_name
- description (1 sentence about the brand, mentioning if it's local or global)
- category (like whiskey, vodka, wine, beer, champagne, rum, etc.)

Return strictly in this JSON format:
[
  {"brand_name": "Brand", "description": "Short description.", "category": "Category"}
]`, location)
}

const alcoholInfoSystem = "You are a knowledgeable cocktail expert."

func alcoholInfoPrompt(brandName, description string) string {
	return fmt.Sprintf(`You are a professional alcohol brand assistant and cocktail recipe formatter.

I will give you a brand name and a short description. You will return a stylized, emoji-rich, multi-step output in the following EXACT format:

----------------------
Brand Name: %[1]s
Alcohol Content: [write here like '30%%']
Flavor Profile: [e.g., Spicy, Bold]
Cocktail Strength: [e.g., Medium]
(number of votes, number of reviews)

⭐⭐⭐⭐⭐ (based on real rating)

🔁 Serving  📹 Recipe

Step 01
Ingredients
[ingredient]                [ml]

Tastes Great With
[food item 1]
[food item 2]
[food item 3]

How to Make it
[how to mix the ingredients in a classy cocktail way, with emojis where needed]

Step 02
Prepare the Glass
[instructions to chill or prep the glass]

Step 03
Mix the Ingredients
[how to shake, stir and strain]

Step 04
Strain & Serve
[finishing touches, texture or foam if needed]

Step 05
Garnish & Enjoy
[how to garnish, in a fun tone]
----------------------

Brand name: %[1]s
Description: %[2]s

Now return only the formatted output in the exact structure above. Do not explain anything outside the format.`, brandName, description)
}
