package signal

import (
	"bufio"
	"strings"

	"github.com/nao1215/aiaudit/internal/model"
)

// KnownAIBots lists the user-agent tokens of AI crawlers and assistants.
var KnownAIBots = []string{
	"GPTBot",
	"ChatGPT-User",
	"OAI-SearchBot",
	"ClaudeBot",
	"Claude-Web",
	"anthropic-ai",
	"PerplexityBot",
	"Google-Extended",
	"CCBot",
	"Bytespider",
	"Applebot-Extended",
	"cohere-ai",
	"Meta-ExternalAgent",
	"Amazonbot",
}

type robotsRule struct {
	allow bool
	path  string
}

type robotsGroup struct {
	agents []string
	rules  []robotsRule
}

// blocksRoot reports whether the group disallows "/" without allowing it
// back.
func (g robotsGroup) blocksRoot() bool {
	disallowed := false
	for _, r := range g.rules {
		if r.path == "/" || r.path == "/*" {
			if r.allow {
				return false
			}
			disallowed = true
		}
	}
	return disallowed
}

func (g robotsGroup) hasAgent(token string) bool {
	token = strings.ToLower(token)
	for _, a := range g.agents {
		if a == token {
			return true
		}
	}
	return false
}

type robotsFile struct {
	groups   []robotsGroup
	sitemaps []string
}

// parseRobots parses robots.txt line by line. Consecutive User-agent lines
// share one group; a User-agent line after a rule starts a new group.
func parseRobots(text string) robotsFile {
	var rf robotsFile
	var current *robotsGroup
	sawRule := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if current == nil || sawRule {
				rf.groups = append(rf.groups, robotsGroup{})
				current = &rf.groups[len(rf.groups)-1]
				sawRule = false
			}
			current.agents = append(current.agents, strings.ToLower(value))
		case "allow", "disallow":
			if current == nil {
				continue
			}
			sawRule = true
			if value == "" {
				// An empty Disallow allows everything.
				continue
			}
			current.rules = append(current.rules, robotsRule{allow: key == "allow", path: value})
		case "sitemap":
			if value != "" {
				rf.sitemaps = append(rf.sitemaps, value)
			}
		}
	}
	return rf
}

// AnalyzeRobots analyzes a robots.txt body. fetched reports whether the
// file was retrieved with a 2xx status; a fetched file with no directives
// is Present and Empty.
func AnalyzeRobots(text string, fetched bool) model.RobotsSignals {
	if !fetched || looksLikeHTML(text) {
		return model.RobotsSignals{}
	}
	rf := parseRobots(text)
	sig := model.RobotsSignals{
		Present:    true,
		Sitemaps:   rf.sitemaps,
		GroupCount: len(rf.groups),
	}
	if len(rf.groups) == 0 && len(rf.sitemaps) == 0 {
		sig.Empty = true
		return sig
	}

	var wildcard *robotsGroup
	for i := range rf.groups {
		if rf.groups[i].hasAgent("*") {
			wildcard = &rf.groups[i]
			break
		}
	}
	sig.BlocksEverything = wildcard != nil && wildcard.blocksRoot()

	for _, bot := range KnownAIBots {
		var specific *robotsGroup
		for i := range rf.groups {
			if rf.groups[i].hasAgent(bot) {
				specific = &rf.groups[i]
				break
			}
		}
		switch {
		case specific != nil && specific.blocksRoot():
			sig.BlockedAIBots = append(sig.BlockedAIBots, bot)
		case specific != nil:
			sig.AllowedAIBots = append(sig.AllowedAIBots, bot)
		case sig.BlocksEverything:
			sig.BlockedAIBots = append(sig.BlockedAIBots, bot)
		}
	}
	return sig
}

// ParseSitemapDirectives returns the Sitemap URLs declared in robots.txt.
func ParseSitemapDirectives(text string) []string {
	if looksLikeHTML(text) {
		return nil
	}
	return parseRobots(text).sitemaps
}
