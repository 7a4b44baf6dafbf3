package tui

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/Joseda-hg/taskboard/internal/service"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewSidebar = "sidebar"
	viewTasks   = "tasks"
	viewDetail  = "detail"
	viewHistory = "history"
	viewPrompt  = "prompt"
	viewHelp    = "help"
)

type UI struct {
	svc *service.Service
	gui *gocui.Gui

	sidebar []sidebarEntry
	rows    []taskRow
	history []model.HistoryEntry

	collapsed map[int64]bool

	activeView   string
	searchText   string
	calendarDate string

	selectedSidebar int
	selectedRow     int
	selectedHistory int
	focus           string

	prompt     *promptState
	helpActive bool
	status     string
}

func newUI(svc *service.Service) *UI {
	return &UI{
		svc:          svc,
		focus:        viewTasks,
		activeView:   model.ViewInbox,
		calendarDate: svc.Today(),
		collapsed:    make(map[int64]bool),
	}
}

func Run(svc *service.Service) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(svc)
	ui.gui = gui
	gui.Mouse = false

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.load(); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quit},
		{"", '?', u.toggleHelp},
		{"", gocui.KeyTab, u.switchFocus},
		{"", '1', u.focusSidebar},
		{"", '2', u.focusTasks},
		{"", '3', u.focusHistory},
		{"", 'a', u.addTask},
		{"", '/', u.startSearch},
		{"", '[', u.previousDay},
		{"", ']', u.nextDay},
		{"", 'P', u.addProject},
		{"", 'r', u.reload},

		{viewSidebar, gocui.KeyArrowDown, u.moveDown},
		{viewSidebar, 'j', u.moveDown},
		{viewSidebar, gocui.KeyArrowUp, u.moveUp},
		{viewSidebar, 'k', u.moveUp},
		{viewSidebar, gocui.KeyEnter, u.openSelectedView},
		{viewSidebar, 'R', u.renameProject},
		{viewSidebar, 'D', u.deleteProject},
		{viewSidebar, 'I', u.moveProjectToInbox},
		{viewSidebar, 'U', u.restoreProject},

		{viewTasks, gocui.KeyArrowDown, u.moveDown},
		{viewTasks, 'j', u.moveDown},
		{viewTasks, gocui.KeyArrowUp, u.moveUp},
		{viewTasks, 'k', u.moveUp},
		{viewTasks, gocui.KeyEnter, u.toggleCollapse},
		{viewTasks, 's', u.addSubTask},
		{viewTasks, 'e', u.editSelected},
		{viewTasks, 'x', u.toggleSelected},
		{viewTasks, gocui.KeySpace, u.toggleSelected},
		{viewTasks, 'd', u.deleteSelected},
		{viewTasks, 'p', u.cyclePriority},
		{viewTasks, 't', u.setDate},

		{viewHistory, gocui.KeyArrowDown, u.moveDown},
		{viewHistory, 'j', u.moveDown},
		{viewHistory, gocui.KeyArrowUp, u.moveUp},
		{viewHistory, 'k', u.moveUp},

		{viewPrompt, gocui.KeyEnter, u.submitPrompt},
		{viewPrompt, gocui.KeyEsc, u.cancelPrompt},

		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}

	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := max(maxY-1, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom <= bodyTop {
		return nil
	}

	l := computeLayout(maxX, bodyBottom-bodyTop+1)
	sidebarX1 := l.sidebarWidth - 1
	tasksX0 := sidebarX1 + 1
	tasksX1 := tasksX0 + l.tasksWidth - 1
	rightX0 := tasksX1 + 1
	rightX1 := maxX - 1
	detailY1 := bodyTop + l.detailHeight - 1

	sidebarView, err := gui.SetView(viewSidebar, 0, bodyTop, sidebarX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		sidebarView.Title = "1 Views"
	}
	applyViewStyle(sidebarView, u.focus == viewSidebar, true)
	u.renderSidebar(sidebarView)

	tasksView, err := gui.SetView(viewTasks, tasksX0, bodyTop, tasksX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	tasksView.Title = "2 " + viewTitle(u.activeView, u.searchText, u.calendarDate)
	applyViewStyle(tasksView, u.focus == viewTasks, true)
	u.renderTasks(tasksView)

	detailView, err := gui.SetView(viewDetail, rightX0, bodyTop, rightX1, detailY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "Detail"
		detailView.Wrap = true
	}
	applyViewStyle(detailView, false, false)
	u.renderDetail(detailView)

	historyView, err := gui.SetView(viewHistory, rightX0, detailY1+1, rightX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		historyView.Title = "3 History"
	}
	applyViewStyle(historyView, u.focus == viewHistory, true)
	u.renderHistory(historyView)

	if u.prompt != nil {
		if err := u.showPrompt(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewPrompt)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if u.prompt == nil && !u.helpActive {
		_, _ = gui.SetCurrentView(u.focus)
	}
	gui.Cursor = u.prompt != nil

	return nil
}

type layout struct {
	sidebarWidth int
	tasksWidth   int
	detailHeight int
}

func computeLayout(width, height int) layout {
	safeWidth := max(width, 40)
	safeHeight := max(height, 8)

	sidebarWidth := min(max(safeWidth/5, 16), 28)
	tasksWidth := max((safeWidth-sidebarWidth)*3/5, 20)
	detailHeight := max(int(float64(safeHeight)*0.55), 4)

	return layout{
		sidebarWidth: sidebarWidth,
		tasksWidth:   tasksWidth,
		detailHeight: detailHeight,
	}
}

// load refreshes every pane from the current board snapshot.
func (u *UI) load() error {
	snapshot := u.svc.Snapshot()
	u.sidebar = buildSidebar(snapshot)

	if !model.IsReservedView(u.activeView) {
		if _, ok := snapshot.ProjectByName(u.activeView); !ok {
			u.activeView = model.ViewInbox
		}
	}

	tasks := snapshot.Filter(board.Query{
		View:  u.activeView,
		Date:  u.calendarDate,
		Text:  u.searchText,
		Today: u.svc.Today(),
	})
	u.rows = buildTaskRows(tasks, u.collapsed)

	if u.selectedRow >= len(u.rows) {
		u.selectedRow = max(len(u.rows)-1, 0)
	}
	if u.selectedSidebar >= len(u.sidebar) {
		u.selectedSidebar = max(len(u.sidebar)-1, 0)
	}

	return u.loadHistory()
}

func (u *UI) loadHistory() error {
	id := int64(0)
	if u.focus == viewSidebar {
		if entry := u.selectedProjectEntry(); entry != nil {
			id = entry.ProjectID
		}
	} else if row := u.selectedTaskRow(); row != nil {
		id = row.Task.ID
	}
	if id == 0 {
		u.history = nil
		return nil
	}

	history, err := u.svc.History(context.Background(), id)
	if err != nil {
		return err
	}
	u.history = history
	if u.selectedHistory >= len(u.history) {
		u.selectedHistory = max(len(u.history)-1, 0)
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	snapshot := u.svc.Snapshot()
	open := 0
	for _, task := range snapshot.Tasks {
		if !task.Completed {
			open++
		}
	}
	fmt.Fprintf(view, "Today: %s | View: %s | Open: %d/%d | Projects: %d | Delete policy: %s",
		u.svc.Today(), viewTitle(u.activeView, u.searchText, u.calendarDate), open, len(snapshot.Tasks), len(snapshot.Projects), u.svc.DeletePolicy())
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	fmt.Fprintln(view, "a add | s subtask | e edit | x toggle | d delete | p priority | t date | enter collapse/open | / search | [ ] day")
	fmt.Fprintln(view, "P new project | R rename | D delete project | I to inbox | U restore | tab/1-3 panes | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderSidebar(view *gocui.View) {
	view.Clear()
	for i, entry := range u.sidebar {
		prefix := " "
		if i == u.selectedSidebar {
			prefix = ">"
		}
		marker := " "
		if entry.View == u.activeView {
			marker = "*"
		}
		fmt.Fprintf(view, "%s%s%s\n", prefix, marker, entry.Label)
	}
	if u.focus == viewSidebar {
		view.SetCursor(0, min(u.selectedSidebar, len(u.sidebar)-1))
	}
}

func (u *UI) renderTasks(view *gocui.View) {
	view.Clear()
	if len(u.rows) == 0 {
		fmt.Fprint(view, "  no tasks")
		return
	}
	for i, row := range u.rows {
		prefix := " "
		if i == u.selectedRow {
			if u.focus == viewTasks {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}

		if row.isSub() {
			fmt.Fprintf(view, "%s     %s\n", prefix, formatSubTaskSummary(*row.Sub))
			continue
		}

		marker := " "
		if len(row.Task.SubTasks) > 0 {
			if u.collapsed[row.Task.ID] {
				marker = "+"
			} else {
				marker = "-"
			}
		}
		fmt.Fprintf(view, "%s %s %s\n", prefix, marker, formatTaskSummary(row.Task))
	}
	if u.focus == viewTasks {
		view.SetCursor(0, min(u.selectedRow, len(u.rows)-1))
	}
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	row := u.selectedTaskRow()
	if row == nil {
		fmt.Fprint(view, "No task selected")
		return
	}
	task := row.Task

	done, total := board.Progress(task)
	lines := []string{
		task.Text,
		fmt.Sprintf("Done: %t", task.Completed),
		fmt.Sprintf("Priority: %s", valueOr(string(task.Priority), "n/a")),
		fmt.Sprintf("Date: %s", valueOr(task.Date, "n/a")),
		fmt.Sprintf("View: %s", task.View),
		fmt.Sprintf("Sub-tasks: %d/%d", done, total),
	}
	for _, sub := range task.SubTasks {
		lines = append(lines, "  "+formatSubTaskSummary(sub))
	}
	fmt.Fprint(view, strings.Join(lines, "\n"))
}

func (u *UI) renderHistory(view *gocui.View) {
	view.Clear()
	focused := u.focus == viewHistory
	for i, entry := range u.history {
		prefix := " "
		if i == u.selectedHistory {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s | %s | %s\n", prefix, entry.CreatedAt.Format("2006-01-02 15:04"), entry.EventType, entry.Details)
	}
	if focused {
		view.SetCursor(0, min(u.selectedHistory, len(u.history)-1))
	}
}

func (u *UI) selectedTaskRow() *taskRow {
	if u.selectedRow >= 0 && u.selectedRow < len(u.rows) {
		return &u.rows[u.selectedRow]
	}
	return nil
}

func (u *UI) selectedProjectEntry() *sidebarEntry {
	if u.selectedSidebar < 0 || u.selectedSidebar >= len(u.sidebar) {
		return nil
	}
	entry := &u.sidebar[u.selectedSidebar]
	if entry.ProjectID == 0 {
		return nil
	}
	return entry
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewSidebar:
		u.focus = viewTasks
	case viewTasks:
		u.focus = viewHistory
	default:
		u.focus = viewSidebar
	}
	return u.loadHistory()
}

func (u *UI) focusSidebar(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(viewSidebar)
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(viewTasks)
}

func (u *UI) focusHistory(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(viewHistory)
}

func (u *UI) setFocus(name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	return u.loadHistory()
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewSidebar:
		if u.selectedSidebar < len(u.sidebar)-1 {
			u.selectedSidebar++
			return u.loadHistory()
		}
	case viewTasks:
		if u.selectedRow < len(u.rows)-1 {
			u.selectedRow++
			return u.loadHistory()
		}
	case viewHistory:
		if u.selectedHistory < len(u.history)-1 {
			u.selectedHistory++
		}
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewSidebar:
		if u.selectedSidebar > 0 {
			u.selectedSidebar--
			return u.loadHistory()
		}
	case viewTasks:
		if u.selectedRow > 0 {
			u.selectedRow--
			return u.loadHistory()
		}
	case viewHistory:
		if u.selectedHistory > 0 {
			u.selectedHistory--
		}
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.load()
}

func (u *UI) openSelectedView(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.selectedSidebar >= len(u.sidebar) {
		return nil
	}
	entry := u.sidebar[u.selectedSidebar]
	if entry.Inbox {
		u.status = fmt.Sprintf("%s is in the inbox; press U to restore it", entry.View)
		return nil
	}
	u.status = ""
	u.activeView = entry.View
	u.selectedRow = 0
	u.focus = viewTasks
	return u.load()
}

func (u *UI) previousDay(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftCalendar(-1)
}

func (u *UI) nextDay(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftCalendar(1)
}

func (u *UI) shiftCalendar(days int) error {
	if u.inputActive() {
		return nil
	}
	if u.activeView == model.ViewCalendar {
		u.calendarDate = shiftDate(u.calendarDate, days)
	}
	u.activeView = model.ViewCalendar
	u.selectedRow = 0
	return u.load()
}

func (u *UI) toggleCollapse(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedTaskRow()
	if row == nil || row.isSub() || len(row.Task.SubTasks) == 0 {
		return nil
	}
	u.collapsed[row.Task.ID] = !u.collapsed[row.Task.ID]
	return u.load()
}

func (u *UI) toggleSelected(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedTaskRow()
	if row == nil {
		return nil
	}
	var err error
	if row.isSub() {
		_, _, err = u.svc.ToggleSubTask(context.Background(), row.Task.ID, row.Sub.ID)
	} else {
		_, _, err = u.svc.ToggleTask(context.Background(), row.Task.ID)
	}
	return u.afterMutation(err)
}

func (u *UI) deleteSelected(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedTaskRow()
	if row == nil {
		return nil
	}
	var err error
	if row.isSub() {
		_, err = u.svc.DeleteSubTask(context.Background(), row.Task.ID, row.Sub.ID)
	} else {
		_, err = u.svc.DeleteTask(context.Background(), row.Task.ID)
	}
	return u.afterMutation(err)
}

func (u *UI) cyclePriority(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedTaskRow()
	if row == nil || row.isSub() {
		return nil
	}
	_, _, err := u.svc.ChangePriority(context.Background(), row.Task.ID, row.Task.Priority.Next())
	return u.afterMutation(err)
}

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.prompt = &promptState{kind: promptAddTask, title: "New task in " + viewTitle(u.activeView, u.searchText, u.calendarDate)}
	return nil
}

func (u *UI) addSubTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedTaskRow()
	if row == nil {
		return nil
	}
	u.prompt = &promptState{kind: promptAddSubTask, title: "New sub-task of " + row.Task.Text, targetID: row.Task.ID}
	return nil
}

func (u *UI) editSelected(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedTaskRow()
	if row == nil {
		return nil
	}
	if row.isSub() {
		u.prompt = &promptState{kind: promptEditSubTask, title: "Edit sub-task", value: row.Sub.Text, targetID: row.Task.ID, subID: row.Sub.ID}
		return nil
	}
	u.prompt = &promptState{kind: promptEditTask, title: "Edit task", value: row.Task.Text, targetID: row.Task.ID}
	return nil
}

func (u *UI) setDate(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedTaskRow()
	if row == nil {
		return nil
	}
	u.prompt = &promptState{kind: promptSetDate, title: "Date", value: row.Task.Date, targetID: row.Task.ID}
	return nil
}

func (u *UI) startSearch(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.prompt = &promptState{kind: promptSearch, title: "Search", value: u.searchText}
	return nil
}

func (u *UI) addProject(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.prompt = &promptState{kind: promptAddProject, title: "New project"}
	return nil
}

func (u *UI) renameProject(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	entry := u.selectedProjectEntry()
	if entry == nil {
		return nil
	}
	u.prompt = &promptState{kind: promptRenameProject, title: "Rename project", value: entry.View, targetID: entry.ProjectID}
	return nil
}

func (u *UI) deleteProject(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	entry := u.selectedProjectEntry()
	if entry == nil {
		return nil
	}
	_, err := u.svc.DeleteProject(context.Background(), entry.ProjectID)
	return u.afterMutation(err)
}

func (u *UI) moveProjectToInbox(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	entry := u.selectedProjectEntry()
	if entry == nil {
		return nil
	}
	_, _, err := u.svc.MoveProjectToInbox(context.Background(), entry.ProjectID)
	return u.afterMutation(err)
}

func (u *UI) restoreProject(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	entry := u.selectedProjectEntry()
	if entry == nil {
		return nil
	}
	_, _, err := u.svc.RestoreProject(context.Background(), entry.ProjectID)
	return u.afterMutation(err)
}

func (u *UI) showPrompt(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewPrompt, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Clear()
		fmt.Fprint(view, u.prompt.value)
		view.SetCursor(len([]rune(u.prompt.value)), 0)
	}
	view.Title = u.prompt.titleText()
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewPrompt)
	return nil
}

func (u *UI) submitPrompt(gui *gocui.Gui, view *gocui.View) error {
	if u.prompt == nil {
		return nil
	}
	value := ""
	if view != nil {
		value = strings.TrimRight(view.Buffer(), "\r\n")
	}
	err := u.applyPrompt(value)
	u.closePrompt(gui)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	return u.load()
}

// applyPrompt hands the submitted value to the store. Blank values reach the
// store too; it ignores them.
func (u *UI) applyPrompt(value string) error {
	p := u.prompt
	ctx := context.Background()
	u.status = ""

	switch p.kind {
	case promptAddTask:
		date := ""
		if u.activeView == model.ViewCalendar {
			date = u.calendarDate
		}
		view := u.activeView
		if view == model.ViewSearch {
			view = model.ViewInbox
		}
		_, _, err := u.svc.AddTask(ctx, value, view, date)
		return err
	case promptAddSubTask:
		_, _, err := u.svc.AddSubTask(ctx, p.targetID, value)
		return err
	case promptEditTask:
		_, _, err := u.svc.EditTask(ctx, p.targetID, value)
		return err
	case promptEditSubTask:
		_, _, err := u.svc.EditSubTask(ctx, p.targetID, p.subID, value)
		return err
	case promptSetDate:
		date, err := parseDate(value)
		if err != nil {
			return err
		}
		_, _, err = u.svc.SetTaskDate(ctx, p.targetID, date)
		return err
	case promptSearch:
		u.searchText = value
		u.activeView = model.ViewSearch
		u.selectedRow = 0
		return nil
	case promptAddProject:
		_, _, err := u.svc.AddProject(ctx, value)
		return err
	case promptRenameProject:
		old, _ := u.svc.Snapshot().Project(p.targetID)
		project, changed, err := u.svc.RenameProject(ctx, p.targetID, value)
		if err == nil && changed && u.activeView == old.Name {
			u.activeView = project.Name
		}
		return err
	}
	return nil
}

func (u *UI) cancelPrompt(gui *gocui.Gui, _ *gocui.View) error {
	u.closePrompt(gui)
	return nil
}

func (u *UI) closePrompt(gui *gocui.Gui) {
	u.prompt = nil
	if gui == nil {
		return
	}
	_ = gui.DeleteView(viewPrompt)
	_, _ = gui.SetCurrentView(u.focus)
}

func (u *UI) afterMutation(err error) error {
	if err != nil {
		u.status = err.Error()
		return nil
	}
	u.status = ""
	return u.load()
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.prompt != nil {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 20
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.prompt != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.prompt != nil {
		return nil
	}
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  tab cycle panes | 1 Views | 2 Tasks | 3 History",
		"  j/k or arrows move selection",
		"  enter opens a view (Views) or collapses sub-tasks (Tasks)",
		"  [ ] previous/next day in the calendar view",
		"",
		"Tasks:",
		"  a add task | s add sub-task | e edit | x/space toggle done",
		"  d delete | p cycle priority | t set date | / search",
		"",
		"Projects (Views pane):",
		"  P new project | R rename | D delete | I move to inbox | U restore",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
