package content

import (
	"fmt"
	"strings"

	"menucast/internal/config"
	"menucast/internal/menu"
	"menucast/internal/platforms"
)

func systemPrompt(local config.Local) string {
	return fmt.Sprintf("You are a marketing copywriter for a modern Italian bistro named '%s' in %s. "+
		"Write engaging, on-brand copy with local SEO keywords. Avoid false local facts if no source info is provided.",
		local.Restaurant, local.City)
}

func narrationPrompt(item menu.Item, local config.Local) string {
	return strings.Join([]string{
		fmt.Sprintf("Menu item: %s (%s)", item.Name, item.Slug),
		"Description: " + item.Description,
		"Ingredients: " + strings.Join(item.Ingredients, ", "),
		fmt.Sprintf("Location: %s, %s", local.City, local.Region),
		"Voice and style: warm, inviting, natural; 20s read time.",
		fmt.Sprintf("Include the restaurant name '%s' and a gentle call to action.", local.Restaurant),
	}, "\n")
}

func captionPrompt(spec platforms.Spec, item menu.Item, local config.Local) string {
	lines := []string{
		"Platform: " + spec.Key,
		fmt.Sprintf("Menu item: %s (%s)", item.Name, item.Slug),
		"Description: " + item.Description,
		"Ingredients: " + strings.Join(item.Ingredients, ", "),
		"Local SEO keywords: " + strings.Join(local.Keywords, ", "),
		fmt.Sprintf("Include: '%s', '%s', '%s'.", local.Restaurant, local.City, local.Region),
		"Tone: warm, modern Italian bistro. Use sensory words.",
		fmt.Sprintf("Length: concise, <= %d characters for the main caption (hashtags appended separately).", spec.RecommendedChars),
	}
	if len(local.CallsToAction) > 0 {
		lines = append(lines, "End with a short call to action such as: "+strings.Join(local.CallsToAction, "; ")+".")
	} else {
		lines = append(lines, "End with a short call to action.")
	}
	return strings.Join(lines, "\n")
}
