package config

func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "OpenAI", URL: "https://openai.com/news/rss.xml"},
		{Name: "Google AI", URL: "https://blog.google/technology/ai/rss/"},
		{Name: "Anthropic", URL: "https://www.anthropic.com/news/rss.xml"},
		{Name: "The Verge AI", URL: "https://www.theverge.com/artificial-intelligence/rss/index.xml"},
	}
}

func DefaultReleaseNotes() []ReleaseNoteConfig {
	return []ReleaseNoteConfig{
		{
			Date:       "contínuo",
			Tool:       "ChatGPT",
			Change:     "acompanhar release notes oficiais",
			SourceLink: "https://help.openai.com/en/articles/6825453-chatgpt-release-notes",
		},
		{
			Date:       "contínuo",
			Tool:       "Gemini",
			Change:     "atenção a mudanças de API e billing",
			SourceLink: "https://ai.google.dev/gemini-api/docs/changelog",
		},
		{
			Date:       "contínuo",
			Tool:       "Anthropic",
			Change:     "evolução contínua dos modelos Claude",
			SourceLink: "https://docs.anthropic.com/en/release-notes/overview",
		},
	}
}

func DefaultVideos() []VideoConfig {
	return []VideoConfig{
		{Channel: "Two Minute Papers", Title: "latest AI research"},
		{Channel: "AI Explained", Title: "model releases this week"},
		{Channel: "Fireship", Title: "AI news"},
	}
}

func DefaultInsights() []InsightConfig {
	return []InsightConfig{
		{Text: "IA está a evoluir de chat para execução real de tarefas"},
		{Text: "Automação exige controlo de permissões e auditoria"},
		{Text: "Custos e breaking changes de API tornam-se críticos"},
	}
}
