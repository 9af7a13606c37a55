package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/storefront-search/internal/search"
	"github.com/lox/storefront-search/internal/types"
)

const (
	itemsPerPage     = 15
	suggestDebounce  = 150 * time.Millisecond
	suggestionsShown = 6
	trendingShown    = 5
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	PageDown   key.Binding
	PageUp     key.Binding
	Search     key.Binding
	SortToggle key.Binding
	StockOnly  key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn/ctrl+f", "page down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup/ctrl+b", "page up")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		SortToggle: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "cycle sort")),
		StockOnly:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "in stock only")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Search, k.SortToggle, k.StockOnly, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Search, k.SortToggle, k.StockOnly, k.Quit},
	}
}

type model struct {
	engine  *search.Engine
	catalog []types.Product

	cursor   int
	width    int
	height   int
	quitting bool
	help     help.Model
	keys     keyMap

	// Search state
	searchActive bool
	searchInput  textinput.Model
	suggestSeq   int
	suggestions  []types.SearchSuggestion
	result       *types.SearchResult
	sortIndex    int
	inStockOnly  bool

	trending []types.TrendingSearch
}

type suggestTickMsg struct{ seq int }

type suggestionsMsg struct {
	seq         int
	suggestions []types.SearchSuggestion
}

type searchResultMsg struct {
	result   types.SearchResult
	trending []types.TrendingSearch
}

type trendingMsg struct {
	trending []types.TrendingSearch
}

func initialModel(engine *search.Engine, catalog []types.Product) model {
	ti := textinput.New()
	ti.Placeholder = "Search products..."
	ti.CharLimit = 156
	ti.Width = 40
	return model{
		engine:      engine,
		catalog:     catalog,
		help:        help.New(),
		keys:        newKeyMap(),
		width:       80,
		height:      24,
		searchInput: ti,
	}
}

func (m model) Init() tea.Cmd {
	return m.fetchTrendingCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.searchInput.Width = m.width - 2
	case tea.KeyMsg:
		if m.searchActive {
			return m.updateSearchInput(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Search):
			m.searchActive = true
			m.searchInput.SetValue("")
			m.suggestions = nil
			m.searchInput.Focus()
			return m, nil
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < m.resultCount()-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.PageDown):
			if m.resultCount() == 0 {
				break
			}
			m.cursor = min(m.cursor+itemsPerPage, m.resultCount()-1)
		case key.Matches(msg, m.keys.PageUp):
			m.cursor = max(m.cursor-itemsPerPage, 0)
		case key.Matches(msg, m.keys.SortToggle):
			m.sortIndex = (m.sortIndex + 1) % len(types.AllSortOrders)
			if m.result != nil {
				return m, m.searchCmd(m.result.Query, false)
			}
		case key.Matches(msg, m.keys.StockOnly):
			m.inStockOnly = !m.inStockOnly
			if m.result != nil {
				return m, m.searchCmd(m.result.Query, false)
			}
		}
	case suggestTickMsg:
		if msg.seq != m.suggestSeq {
			return m, nil
		}
		return m, m.suggestCmd(msg.seq, m.searchInput.Value())
	case suggestionsMsg:
		if msg.seq == m.suggestSeq {
			m.suggestions = msg.suggestions
		}
	case searchResultMsg:
		m.result = &msg.result
		m.trending = msg.trending
		m.cursor = 0
	case trendingMsg:
		m.trending = msg.trending
	}
	return m, nil
}

func (m model) updateSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchActive = false
		m.suggestions = nil
		m.suggestSeq++
		return m, m.searchCmd(m.searchInput.Value(), true)
	case "esc":
		m.searchActive = false
		m.suggestions = nil
		m.suggestSeq++
		return m, nil
	case "tab":
		if len(m.suggestions) > 0 {
			m.searchInput.SetValue(m.suggestions[0].Text)
			m.searchInput.CursorEnd()
		}
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == before && msg.String() != "tab" {
		return m, cmd
	}

	// suggestions are fetched once typing pauses
	m.suggestSeq++
	seq := m.suggestSeq
	tick := tea.Tick(suggestDebounce, func(time.Time) tea.Msg { return suggestTickMsg{seq: seq} })
	return m, tea.Batch(cmd, tick)
}

func (m model) filters() *types.SearchFilters {
	return &types.SearchFilters{
		InStock: m.inStockOnly,
		SortBy:  types.AllSortOrders[m.sortIndex],
	}
}

func (m model) resultCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Products)
}

func (m model) suggestCmd(seq int, query string) tea.Cmd {
	return func() tea.Msg {
		return suggestionsMsg{
			seq:         seq,
			suggestions: m.engine.Suggest(context.Background(), query, m.catalog, suggestionsShown),
		}
	}
}

// searchCmd runs a search; submitted searches are recorded in history
func (m model) searchCmd(query string, record bool) tea.Cmd {
	filters := m.filters()
	return func() tea.Msg {
		ctx := context.Background()
		var result types.SearchResult
		if record {
			result = m.engine.Execute(ctx, query, types.QueryTypeText, m.catalog, filters)
		} else {
			result = m.engine.Search(ctx, query, m.catalog, filters)
		}
		return searchResultMsg{result: result, trending: m.engine.Trending(ctx, trendingShown)}
	}
}

func (m model) fetchTrendingCmd() tea.Cmd {
	return func() tea.Msg {
		return trendingMsg{trending: m.engine.Trending(context.Background(), trendingShown)}
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var status string
	order := types.AllSortOrders[m.sortIndex]
	stock := ""
	if m.inStockOnly {
		stock = ", in stock only"
	}
	switch {
	case m.result == nil:
		status = fmt.Sprintf("%d products in catalog, press / to search", len(m.catalog))
	case m.result.Total == 0:
		status = fmt.Sprintf("Search: \"%s\" — No results (sorted by %s%s)", m.result.Query, order, stock)
	default:
		plural := "s"
		if m.result.Total == 1 {
			plural = ""
		}
		status = fmt.Sprintf("Search: \"%s\" — %d result%s (sorted by %s%s)", m.result.Query, m.result.Total, plural, order, stock)
	}

	var b strings.Builder
	if m.result != nil {
		products := m.result.Products
		start := max(m.cursor-itemsPerPage/2, 0)
		end := start + itemsPerPage
		if end > len(products) {
			end = len(products)
			start = max(end-itemsPerPage, 0)
		}

		for i := start; i < end; i++ {
			cursor := "  "
			if i == m.cursor {
				cursor = "> "
			}
			p := products[i]
			name := p.Name
			maxNameLen := max(m.width-40, 10)
			if len(name) > maxNameLen {
				name = name[:maxNameLen-3] + "..."
			}
			b.WriteString(fmt.Sprintf("%s%-*s | %12s | %-12s | stock %d\n", cursor, maxNameLen, name, p.Price.StringFixed(2), p.Category, p.Stock))
		}
		if m.result.DidYouMean != nil {
			b.WriteString(fmt.Sprintf("\nDid you mean: %s\n", *m.result.DidYouMean))
		}
	}

	if len(m.trending) > 0 {
		b.WriteString("\nTrending: ")
		queries := make([]string, 0, len(m.trending))
		for _, t := range m.trending {
			queries = append(queries, fmt.Sprintf("%s (%s)", t.Query, t.Trend))
		}
		b.WriteString(strings.Join(queries, ", "))
		b.WriteString("\n")
	}

	lines := []string{status, "", b.String()}
	if m.searchActive {
		lines = append(lines, "/"+m.searchInput.View())
		for _, s := range m.suggestions {
			lines = append(lines, fmt.Sprintf("   %s  (%s)", s.Text, s.Type))
		}
	}
	lines = append(lines, m.help.View(m.keys))
	output := strings.Join(lines, "\n")

	lineCount := strings.Count(output, "\n") + 1
	if lineCount < m.height {
		output += strings.Repeat("\n", m.height-lineCount)
	}

	return output
}
