package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/planbridge/pkg/applescript"
)

var documentKeys = []string{"child_tasks", "resources", "selected_task_ids", "selected_resource_ids"}

// Document is the root of a project tree mirrored from the host. It owns the
// task, resource and custom data indices. A Document is not safe for
// concurrent use.
type Document struct {
	taskList
	name    string
	query   QueryBridge
	mutator MutationBridge
	logger  *zap.Logger

	// snapshot marks documents materialized from cached data.
	snapshot bool

	raw     []byte
	payload map[string]any

	tasksByID         map[int64]*Task
	resources         []*Resource
	resourcesByID     map[int64]*Resource
	customData        *CustomDataIndex
	selectedTasks     []*Task
	selectedResources []*Resource
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for commits and load failures.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// AsSnapshot marks the document as built from cached data. Such a document
// can be read but refuses commits and creations with ErrSnapshotReadOnly.
func AsSnapshot() Option {
	return func(d *Document) {
		d.snapshot = true
	}
}

// NewDocument returns an empty document bound to the named host document.
// Call Load or Materialize to populate it.
func NewDocument(name string, query QueryBridge, mutator MutationBridge, opts ...Option) *Document {
	d := &Document{
		name:    name,
		query:   query,
		mutator: mutator,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.reset()
	return d
}

func (d *Document) reset() {
	d.tasks = nil
	d.raw = nil
	d.payload = nil
	d.tasksByID = make(map[int64]*Task)
	d.resources = nil
	d.resourcesByID = make(map[int64]*Resource)
	d.customData = newCustomDataIndex()
	d.selectedTasks = nil
	d.selectedResources = nil
}

func (d *Document) Name() string { return d.name }

// FromSnapshot reports whether the document was built from cached data.
func (d *Document) FromSnapshot() bool { return d.snapshot }

// Raw returns the property list text of the last load.
func (d *Document) Raw() []byte { return d.raw }

// Payload returns the decoded payload of the last load.
func (d *Document) Payload() map[string]any { return d.payload }

// Load queries the host for the whole document and materializes it.
func (d *Document) Load(ctx context.Context) error {
	if d.query == nil {
		return ErrBridgeUnavailable
	}
	raw, err := d.query.Query(ctx, applescript.DocumentQuery, d.name)
	if err != nil {
		return WrapError(ErrCodeBridge, fmt.Sprintf("query document %q", d.name), err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("document %q: %w", d.name, ErrDocumentNotOpen)
	}
	value, err := d.query.Decode(raw)
	if err != nil {
		return WrapError(ErrCodeBridge, fmt.Sprintf("parse data of document %q", d.name), err)
	}
	return d.Materialize(raw, value)
}

// Materialize replaces the document contents with the given payload:
// the task tree first, then resources with their assignments, then
// dependencies and finally the selection. Any inconsistency fails the
// whole load.
func (d *Document) Materialize(raw []byte, value any) error {
	payload, err := wireRecord(value)
	if err != nil {
		return WrapError(ErrCodeSchema, fmt.Sprintf("document %q", d.name), err)
	}
	for _, key := range slices.Sorted(maps.Keys(payload)) {
		if !slices.Contains(documentKeys, key) {
			return errorf(ErrCodeSchema, "unknown key %q in document data", key)
		}
	}
	for _, key := range documentKeys {
		if _, ok := payload[key]; !ok {
			return errorf(ErrCodeSchema, "missing key %q in document data", key)
		}
	}

	d.reset()
	d.raw = raw
	d.payload = payload

	if err := addTasksFromPayload(d, payload["child_tasks"]); err != nil {
		return d.loadFailed(err)
	}
	if err := d.materializeResources(payload["resources"]); err != nil {
		return d.loadFailed(err)
	}
	if err := d.resolveDependencies(); err != nil {
		return d.loadFailed(err)
	}
	if err := d.materializeSelection(payload); err != nil {
		return d.loadFailed(err)
	}
	d.logger.Debug("document materialized",
		zap.String("document", d.name),
		zap.Int("tasks", len(d.tasksByID)),
		zap.Int("resources", len(d.resources)))
	return nil
}

func (d *Document) loadFailed(err error) error {
	d.logger.Error("document load failed", zap.String("document", d.name), zap.Error(err))
	d.reset()
	return err
}

func (d *Document) materializeResources(value any) error {
	items, err := wireList(value)
	if err != nil {
		return WrapError(ErrCodeSchema, "resources", err)
	}
	for _, item := range items {
		record, err := wireRecord(item)
		if err != nil {
			return WrapError(ErrCodeSchema, "resource", err)
		}
		id, err := wireInt(record["id"])
		if err != nil {
			return WrapError(ErrCodeSchema, "resource id", err)
		}
		name, err := wireString(record["name"])
		if err != nil {
			return WrapError(ErrCodeSchema, fmt.Sprintf("name of resource %d", id), err)
		}
		r := &Resource{id: id, name: name}
		if err := d.addResource(r); err != nil {
			return err
		}

		assignments, err := wireList(record["task_assignments"])
		if err != nil {
			return WrapError(ErrCodeSchema, fmt.Sprintf("assignments of resource %d", id), err)
		}
		for _, a := range assignments {
			ar, err := wireRecord(a)
			if err != nil {
				return WrapError(ErrCodeSchema, fmt.Sprintf("assignment of resource %d", id), err)
			}
			taskID, err := wireInt(ar["task_id"])
			if err != nil {
				return WrapError(ErrCodeSchema, fmt.Sprintf("assignment of resource %d", id), err)
			}
			task, err := d.TaskForID(taskID)
			if err != nil {
				return WrapError(ErrCodeSchema, fmt.Sprintf("assignment of resource %d references task %d", id, taskID), err)
			}
			units := 1.0
			if u, ok := ar["units"]; ok {
				if units, err = wireFloat(u); err != nil {
					return WrapError(ErrCodeDecode, fmt.Sprintf("units %#v of resource %d assignment", u, id), err)
				}
			}
			newResourceAssignment(r, task, units)
		}
	}
	return nil
}

func (d *Document) resolveDependencies() error {
	for task := range d.Descendants() {
		for _, p := range task.prerequisitesData {
			prerequisite, err := d.TaskForID(p.PrerequisiteTaskID)
			if err != nil {
				return WrapError(ErrCodeSchema, fmt.Sprintf("prerequisite of task %d", task.id), err)
			}
			dependent, err := d.TaskForID(p.DependentTaskID)
			if err != nil {
				return WrapError(ErrCodeSchema, fmt.Sprintf("dependent of task %d", task.id), err)
			}
			dep := NewTaskDependency(prerequisite, dependent, p.Type)
			dep.leadTime = p.LeadTime
			dep.leadPercentage = p.LeadPercentage
		}
	}
	return nil
}

func (d *Document) materializeSelection(payload map[string]any) error {
	taskIDs, err := wireList(payload["selected_task_ids"])
	if err != nil {
		return WrapError(ErrCodeSchema, "selected tasks", err)
	}
	for _, v := range taskIDs {
		id, err := wireInt(v)
		if err != nil {
			return WrapError(ErrCodeSchema, "selected task id", err)
		}
		task, err := d.TaskForID(id)
		if err != nil {
			return WrapError(ErrCodeSchema, "selected task", err)
		}
		d.selectedTasks = append(d.selectedTasks, task)
	}

	resourceIDs, err := wireList(payload["selected_resource_ids"])
	if err != nil {
		return WrapError(ErrCodeSchema, "selected resources", err)
	}
	for _, v := range resourceIDs {
		id, err := wireInt(v)
		if err != nil {
			return WrapError(ErrCodeSchema, "selected resource id", err)
		}
		resource, err := d.ResourceForID(id)
		if err != nil {
			return WrapError(ErrCodeSchema, "selected resource", err)
		}
		d.selectedResources = append(d.selectedResources, resource)
	}
	return nil
}

func (d *Document) register(t *Task) error {
	if _, ok := d.tasksByID[t.id]; ok {
		return errorf(ErrCodeSchema, "duplicate task id %d in document %q", t.id, d.name)
	}
	d.tasksByID[t.id] = t
	d.customData.register(t)
	return nil
}

func (d *Document) addResource(r *Resource) error {
	if _, ok := d.resourcesByID[r.id]; ok {
		return errorf(ErrCodeSchema, "duplicate resource id %d in document %q", r.id, d.name)
	}
	d.resourcesByID[r.id] = r
	d.resources = append(d.resources, r)
	return nil
}

func (d *Document) addChild(t *Task) error {
	d.tasks = append(d.tasks, t)
	return d.register(t)
}

func (d *Document) scope(body string) string {
	return applescript.TellDocument(d.name, body)
}

func (d *Document) Parent() TaskCollection { return nil }
func (d *Document) Document() *Document    { return d }
func (d *Document) Level() int             { return 0 }

// AllTasks yields every task of the document in outline order.
func (d *Document) AllTasks() iter.Seq[*Task] {
	return d.Descendants()
}

func (d *Document) TaskForID(id int64) (*Task, error) {
	t, ok := d.tasksByID[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
	}
	return t, nil
}

// TaskForName returns the first task in outline order with the given name.
func (d *Document) TaskForName(name string) (*Task, error) {
	for t := range d.Descendants() {
		if t.name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("task %q: %w", name, ErrTaskNotFound)
}

func (d *Document) ResourceForID(id int64) (*Resource, error) {
	r, ok := d.resourcesByID[id]
	if !ok {
		return nil, fmt.Errorf("resource %d: %w", id, ErrResourceNotFound)
	}
	return r, nil
}

func (d *Document) ResourceForName(name string) (*Resource, error) {
	for _, r := range d.resources {
		if r.name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("resource %q: %w", name, ErrResourceNotFound)
}

func (d *Document) Resources() []*Resource {
	return slices.Clone(d.resources)
}

// TasksForCustomDataValue returns the tasks whose custom data holds
// name=value, possibly none.
func (d *Document) TasksForCustomDataValue(name, value string) []*Task {
	return d.customData.Tasks(name, value)
}

func (d *Document) CustomDataIndex() *CustomDataIndex { return d.customData }

func (d *Document) SelectedTasks() []*Task         { return slices.Clone(d.selectedTasks) }
func (d *Document) SelectedResources() []*Resource { return slices.Clone(d.selectedResources) }

// CreateTask creates a top level task in the host and appends it to the
// document.
func (d *Document) CreateTask(ctx context.Context, props TaskProperties) (*Task, error) {
	return createTask(ctx, d, props)
}

// CreateResource creates a resource in the host and registers it locally.
func (d *Document) CreateResource(ctx context.Context, name string) (*Resource, error) {
	if d.snapshot {
		return nil, fmt.Errorf("create resource in document %q: %w", d.name, ErrSnapshotReadOnly)
	}
	if d.mutator == nil {
		return nil, ErrBridgeUnavailable
	}
	out, err := d.mutator.Mutate(ctx, d.scope(applescript.MakeResource(name)))
	if err != nil {
		return nil, WrapError(ErrCodeBridge, fmt.Sprintf("create resource %q in document %q", name, d.name), err)
	}
	id, err := parseID(out)
	if err != nil {
		return nil, WrapError(ErrCodeBridge, fmt.Sprintf("create resource %q in document %q", name, d.name), err)
	}
	r := &Resource{id: id, name: name}
	if err := d.addResource(r); err != nil {
		return nil, err
	}
	d.logger.Info("resource created", zap.String("document", d.name), zap.Int64("resource_id", id))
	return r, nil
}

// Commit commits every task with pending changes in outline order. It keeps
// going after a failure and returns the scripts of all commits together
// with the joined errors.
func (d *Document) Commit(ctx context.Context, dryRun bool) (string, error) {
	if d.snapshot {
		return "", fmt.Errorf("commit document %q: %w", d.name, ErrSnapshotReadOnly)
	}
	var (
		scripts []string
		errs    []error
	)
	for t := range d.Descendants() {
		if !t.Dirty() {
			continue
		}
		script, err := t.Commit(ctx, dryRun)
		if script != "" {
			scripts = append(scripts, script)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return strings.Join(scripts, ""), errors.Join(errs...)
}

// PrintTree writes an indented outline of all tasks.
func (d *Document) PrintTree(w io.Writer) error {
	for t := range d.Descendants() {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("--", t.Level()), t); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) String() string {
	return fmt.Sprintf("Document %s", d.name)
}

func createTask(ctx context.Context, parent TaskCollection, props TaskProperties) (*Task, error) {
	d := parent.Document()
	if d.snapshot {
		return nil, fmt.Errorf("create task in document %q: %w", d.name, ErrSnapshotReadOnly)
	}
	if d.mutator == nil || d.query == nil {
		return nil, ErrBridgeUnavailable
	}
	fields, err := props.render()
	if err != nil {
		return nil, err
	}
	out, err := d.mutator.Mutate(ctx, parent.scope(applescript.MakeTask(fields)))
	if err != nil {
		return nil, WrapError(ErrCodeBridge, fmt.Sprintf("create task in document %q", d.name), err)
	}
	id, err := parseID(out)
	if err != nil {
		return nil, WrapError(ErrCodeBridge, fmt.Sprintf("create task in document %q", d.name), err)
	}

	raw, err := d.query.Query(ctx, applescript.TaskQuery, d.name, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, WrapError(ErrCodeBridge, fmt.Sprintf("query task %d of document %q", id, d.name), err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("document %q: %w", d.name, ErrDocumentNotOpen)
	}
	value, err := d.query.Decode(raw)
	if err != nil {
		return nil, WrapError(ErrCodeBridge, fmt.Sprintf("parse task %d of document %q", id, d.name), err)
	}
	record, err := wireRecord(value)
	if err != nil {
		return nil, WrapError(ErrCodeSchema, fmt.Sprintf("task %d", id), err)
	}
	task, err := newTask(d, parent, record)
	if err != nil {
		return nil, err
	}
	if err := parent.addChild(task); err != nil {
		return nil, err
	}
	d.logger.Info("task created", zap.String("document", d.name), zap.Int64("task_id", id))
	return task, nil
}

func parseID(out string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected identifier %q", out)
	}
	return id, nil
}
