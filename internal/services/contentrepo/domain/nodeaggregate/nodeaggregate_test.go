package nodeaggregate

import (
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentstream"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

const dimensionsYAML = `
dimensions:
  language:
    values:
      mul:
        specializations:
          de:
            specializations:
              gsw: {}
          en: {}
      fr: {}
`

const schemaYAML = `
'Acme:Sites':
  superTypes:
    'ContentRepository:Root': true
  childNodes:
    archive:
      type: 'Acme:Folder'
'Acme:Folder':
  constraints:
    nodeTypes:
      '*': true
'Acme:Page':
  properties:
    title:
      type: string
      defaultValue: 'Untitled'
    slug:
      type: string
      scope: specializations
    theme:
      type: string
      scope: nodeAggregate
    author:
      type: reference
      constraints:
        nodeTypes:
          'Acme:Person': true
  childNodes:
    main:
      type: 'Acme:Collection'
      constraints:
        nodeTypes:
          'Acme:Text': true
          '*': false
  constraints:
    nodeTypes:
      'Acme:Page': true
      'Acme:Text': true
      '*': false
'Acme:Landing':
  childNodes:
    hero:
      type: 'Acme:Collection'
  constraints:
    nodeTypes:
      'Acme:Page': true
      '*': false
'Acme:Collection':
  constraints:
    nodeTypes:
      '*': true
'Acme:Text': {}
'Acme:Person': {}
'Acme:Abstract':
  abstract: true
`

const cs1 node.ContentStreamID = "cs-1"

var (
	mul = dimension.NewDimensionSpacePoint(map[string]string{"language": "mul"})
	de  = dimension.NewDimensionSpacePoint(map[string]string{"language": "de"})
	gsw = dimension.NewDimensionSpacePoint(map[string]string{"language": "gsw"})
	en  = dimension.NewDimensionSpacePoint(map[string]string{"language": "en"})
	fr  = dimension.NewDimensionSpacePoint(map[string]string{"language": "fr"})
)

type fakeStreams map[node.ContentStreamID]contentstream.State

func (f fakeStreams) Find(id node.ContentStreamID) (contentstream.State, bool) {
	state, ok := f[id]
	return state, ok
}

type harness struct {
	t       *testing.T
	graph   *contentgraph.Projection
	streams fakeStreams
	handler *Handler
	seq     uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	source, err := dimension.LoadSource(strings.NewReader(dimensionsYAML))
	if err != nil {
		t.Fatalf("load dimensions: %v", err)
	}
	zookeeper := dimension.NewZookeeper(source)
	variation := dimension.NewVariationGraph(source, zookeeper)
	manager, err := nodetype.LoadManager(strings.NewReader(schemaYAML))
	if err != nil {
		t.Fatalf("load node types: %v", err)
	}
	graph := contentgraph.NewProjection()
	streams := fakeStreams{
		cs1:      {ID: cs1, Status: contentstream.StatusInUseByWorkspace},
		"closed": {ID: "closed", Status: contentstream.StatusClosed},
	}
	checker := constraint.NewChecker(graph, manager, zookeeper, streams)
	h := &harness{t: t, graph: graph, streams: streams, handler: NewHandler(checker, graph, variation, zookeeper)}
	generated := 0
	h.handler.newID = func() node.NodeAggregateID {
		generated++
		return node.NodeAggregateID(fmt.Sprintf("generated-%d", generated))
	}
	h.apply(event.ContentStreamWasCreated{ContentStreamID: cs1})
	h.run(command.CreateRootNodeAggregateWithNode{ContentStreamID: cs1, NodeAggregateID: "root", NodeTypeName: nodetype.RootNodeTypeName})
	return h
}

func (h *harness) apply(events ...event.Event) {
	h.t.Helper()
	for _, evt := range events {
		h.seq++
		if err := h.graph.Apply(eventstore.Record{Sequence: h.seq, Event: evt}); err != nil {
			h.t.Fatalf("apply %s: %v", evt.EventType(), err)
		}
	}
	h.graph.Invalidate()
}

// run handles cmd, checks the batch envelope and commits it.
func (h *harness) run(cmd command.NodeCommand) eventstore.EventsToPublish {
	h.t.Helper()
	batch, err := h.handler.Handle(cmd)
	if err != nil {
		h.t.Fatalf("handle %s: %v", cmd.CommandType(), err)
	}
	state := h.streams[cmd.StreamID()]
	if batch.StreamName != event.ContentStreamStreamName(cmd.StreamID()) {
		h.t.Fatalf("stream name = %s", batch.StreamName)
	}
	if batch.ExpectedVersion != eventstore.Exactly(state.Version) {
		h.t.Fatalf("expected version = %s, want %d", batch.ExpectedVersion, state.Version)
	}
	for _, pending := range batch.Events {
		h.apply(pending.Event)
	}
	state.Version += int64(len(batch.Events))
	h.streams[cmd.StreamID()] = state
	return batch
}

func (h *harness) fail(cmd command.NodeCommand, code apperrors.Code) {
	h.t.Helper()
	batch, err := h.handler.Handle(cmd)
	if !apperrors.IsCode(err, code) {
		h.t.Fatalf("%s: expected %s, got %v", cmd.CommandType(), code, err)
	}
	if !batch.IsEmpty() {
		h.t.Fatalf("%s: failed command produced %d events", cmd.CommandType(), len(batch.Events))
	}
}

func (h *harness) aggregate(id node.NodeAggregateID) *contentgraph.NodeAggregate {
	h.t.Helper()
	agg, err := h.graph.FindNodeAggregateByID(cs1, id)
	if err != nil {
		h.t.Fatalf("find %s: %v", id, err)
	}
	if agg == nil {
		h.t.Fatalf("node aggregate %s does not exist", id)
	}
	return agg
}

func (h *harness) createPage(id, parent node.NodeAggregateID, name node.NodeName, origin dimension.DimensionSpacePoint) {
	h.t.Helper()
	h.run(command.CreateNodeAggregateWithNode{
		ContentStreamID:                    cs1,
		NodeAggregateID:                    id,
		NodeTypeName:                       "Acme:Page",
		OriginDimensionSpacePoint:          origin.AsOrigin(),
		ParentNodeAggregateID:              parent,
		NodeName:                           name,
		TetheredDescendantNodeAggregateIDs: node.NodeAggregateIDsByNodePaths{"main": id + "-main"},
	})
}

func (h *harness) createNode(id node.NodeAggregateID, typeName node.NodeTypeName, parent node.NodeAggregateID, name node.NodeName, origin dimension.DimensionSpacePoint) {
	h.t.Helper()
	h.run(command.CreateNodeAggregateWithNode{
		ContentStreamID:           cs1,
		NodeAggregateID:           id,
		NodeTypeName:              typeName,
		OriginDimensionSpacePoint: origin.AsOrigin(),
		ParentNodeAggregateID:     parent,
		NodeName:                  name,
	})
}

func points(ps ...dimension.DimensionSpacePoint) dimension.DimensionSpacePointSet {
	return dimension.NewDimensionSpacePointSet(ps...)
}

func expectPoints(t *testing.T, label string, got, want dimension.DimensionSpacePointSet) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func eventsOf(batch eventstore.EventsToPublish) []event.Event {
	out := make([]event.Event, 0, len(batch.Events))
	for _, pending := range batch.Events {
		out = append(out, pending.Event)
	}
	return out
}

func value(v any) *node.SerializedPropertyValue {
	return &node.SerializedPropertyValue{Value: v, Type: "string"}
}

func TestCreateRootNodeAggregate(t *testing.T) {
	h := newHarness(t)
	root := h.aggregate("root")
	expectPoints(t, "root coverage", root.CoveredDimensionSpacePoints(), points(mul, de, gsw, en, fr))
	if !root.IsRoot() {
		t.Fatalf("classification = %s", root.Classification)
	}

	h.fail(command.CreateRootNodeAggregateWithNode{ContentStreamID: cs1, NodeAggregateID: "other", NodeTypeName: nodetype.RootNodeTypeName},
		apperrors.CodeRootNodeAggregateTypeAlreadyExists)
	h.fail(command.CreateRootNodeAggregateWithNode{ContentStreamID: cs1, NodeAggregateID: "other", NodeTypeName: "Acme:Page"},
		apperrors.CodeNodeTypeIsNotOfTypeRoot)
	h.fail(command.CreateRootNodeAggregateWithNode{ContentStreamID: cs1, NodeAggregateID: "root", NodeTypeName: "Acme:Sites"},
		apperrors.CodeNodeAggregateCurrentlyExists)
	h.fail(command.CreateRootNodeAggregateWithNode{ContentStreamID: "closed", NodeAggregateID: "other", NodeTypeName: "Acme:Sites"},
		apperrors.CodeContentStreamIsClosed)
}

func TestCreateRootNodeAggregateWithTetheredChildren(t *testing.T) {
	h := newHarness(t)
	batch := h.run(command.CreateRootNodeAggregateWithNode{ContentStreamID: cs1, NodeAggregateID: "sites", NodeTypeName: "Acme:Sites"})
	events := eventsOf(batch)
	if len(events) != 3 {
		t.Fatalf("events = %d, want root, tethered creation and one peer variant", len(events))
	}
	created, ok := events[1].(event.NodeAggregateWithNodeWasCreated)
	if !ok {
		t.Fatalf("second event = %T", events[1])
	}
	if created.NodeAggregateClassification != node.ClassificationTethered || created.NodeName != "archive" {
		t.Fatalf("tethered = %+v", created)
	}
	if _, ok := events[2].(event.NodePeerVariantWasCreated); !ok {
		t.Fatalf("third event = %T", events[2])
	}

	cmd, ok, err := command.FromMetadata(batch.Events[0].Metadata)
	if err != nil || !ok {
		t.Fatalf("metadata: ok=%v err=%v", ok, err)
	}
	recorded := cmd.(command.CreateRootNodeAggregateWithNode)
	if id, _ := recorded.TetheredDescendantNodeAggregateIDs.Get("archive"); id != created.NodeAggregateID {
		t.Fatalf("recorded tethered id = %s, want %s", id, created.NodeAggregateID)
	}

	archive := h.aggregate(created.NodeAggregateID)
	expectPoints(t, "archive coverage", archive.CoveredDimensionSpacePoints(), points(mul, de, gsw, en, fr))
	if archive.OccupiedDimensionSpacePoints().Len() != 2 {
		t.Fatalf("archive occupies %s", archive.OccupiedDimensionSpacePoints())
	}
	for _, point := range archive.CoveredDimensionSpacePoints().Points() {
		if parent, _ := archive.ParentNodeAggregateID(point); parent != "sites" {
			t.Fatalf("parent in %s = %s", point, parent)
		}
	}
}

func TestCreateNodeAggregateWithNode(t *testing.T) {
	h := newHarness(t)
	batch := h.run(command.CreateNodeAggregateWithNode{
		ContentStreamID:           cs1,
		NodeAggregateID:           "home",
		NodeTypeName:              "Acme:Page",
		OriginDimensionSpacePoint: de.AsOrigin(),
		ParentNodeAggregateID:     "root",
		NodeName:                  "home",
		InitialPropertyValues:     node.SerializedPropertyValues{"slug": value("home")},
	})
	events := eventsOf(batch)
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	created := events[0].(event.NodeAggregateWithNodeWasCreated)
	expectPoints(t, "coverage", created.CoveredDimensionSpacePoints, points(de, gsw))
	if created.InitialPropertyValues["title"].Value != "Untitled" || created.InitialPropertyValues["slug"].Value != "home" {
		t.Fatalf("initial values = %v", created.InitialPropertyValues)
	}
	main := events[1].(event.NodeAggregateWithNodeWasCreated)
	if main.ParentNodeAggregateID != "home" || main.NodeName != "main" || main.NodeTypeName != "Acme:Collection" {
		t.Fatalf("tethered = %+v", main)
	}
	expectPoints(t, "tethered coverage", main.CoveredDimensionSpacePoints, points(de, gsw))
	if main.NodeAggregateID != "generated-1" {
		t.Fatalf("tethered id = %s", main.NodeAggregateID)
	}
	cmd, _, err := command.FromMetadata(batch.Events[0].Metadata)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if id, _ := cmd.(command.CreateNodeAggregateWithNode).TetheredDescendantNodeAggregateIDs.Get("main"); id != "generated-1" {
		t.Fatalf("recorded tethered id = %s", id)
	}
}

func TestCreateNodeAggregateWithNodeNarrowsToParentCoverage(t *testing.T) {
	h := newHarness(t)
	h.apply(event.NodeAggregateWithNodeWasCreated{
		ContentStreamID:             cs1,
		NodeAggregateID:             "folder",
		NodeTypeName:                "Acme:Folder",
		OriginDimensionSpacePoint:   de.AsOrigin(),
		CoveredDimensionSpacePoints: points(de),
		ParentNodeAggregateID:       "root",
		NodeName:                    "folder",
		NodeAggregateClassification: node.ClassificationRegular,
	})

	h.createNode("text", "Acme:Text", "folder", "text", de)
	expectPoints(t, "coverage", h.aggregate("text").CoveredDimensionSpacePoints(), points(de))
}

func TestCreateNodeAggregateWithNodeRejections(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", de)
	it := dimension.NewDimensionSpacePoint(map[string]string{"language": "it"})

	tests := []struct {
		name     string
		id       node.NodeAggregateID
		cs       node.ContentStreamID
		typ      node.NodeTypeName
		origin   dimension.DimensionSpacePoint
		parent   node.NodeAggregateID
		nodeName node.NodeName
		values   node.SerializedPropertyValues
		code     apperrors.Code
	}{
		{name: "closed stream", cs: "closed", code: apperrors.CodeContentStreamIsClosed},
		{name: "unknown point", origin: it, code: apperrors.CodeDimensionSpacePointNotFound},
		{name: "unknown type", typ: "Acme:Missing", code: apperrors.CodeNodeTypeNotFound},
		{name: "abstract type", typ: "Acme:Abstract", code: apperrors.CodeNodeTypeIsAbstract},
		{name: "root type", typ: nodetype.RootNodeTypeName, code: apperrors.CodeNodeTypeIsOfTypeRoot},
		{name: "existing id", id: "home", code: apperrors.CodeNodeAggregateCurrentlyExists},
		{name: "missing parent", parent: "nowhere", code: apperrors.CodeNodeAggregateCurrentlyDoesNotExist},
		{name: "parent not covering", parent: "home", origin: en, code: apperrors.CodeNodeAggregateDoesCurrentlyNotCoverPoint},
		{name: "parent constraint", typ: "Acme:Person", parent: "home", code: apperrors.CodeNodeConstraintViolation},
		{name: "grandparent constraint", parent: "home-main", code: apperrors.CodeNodeConstraintViolation},
		{name: "undeclared property", values: node.SerializedPropertyValues{"color": value("red")}, code: apperrors.CodePropertyCannotBeSet},
		{name: "name taken", nodeName: "home", code: apperrors.CodeNodeNameIsAlreadyOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := command.CreateNodeAggregateWithNode{
				ContentStreamID:           cs1,
				NodeAggregateID:           "new",
				NodeTypeName:              "Acme:Page",
				OriginDimensionSpacePoint: de.AsOrigin(),
				ParentNodeAggregateID:     "root",
				NodeName:                  tt.nodeName,
				InitialPropertyValues:     tt.values,
			}
			if tt.cs != "" {
				cmd.ContentStreamID = tt.cs
			}
			if tt.id != "" {
				cmd.NodeAggregateID = tt.id
			}
			if tt.typ != "" {
				cmd.NodeTypeName = tt.typ
			}
			if !tt.origin.IsZero() {
				cmd.OriginDimensionSpacePoint = tt.origin.AsOrigin()
			}
			if tt.parent != "" {
				cmd.ParentNodeAggregateID = tt.parent
			}
			h.fail(cmd, tt.code)
		})
	}
}

func TestSetSerializedNodeProperties(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", mul)
	h.run(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home", SourceOrigin: mul.AsOrigin(), TargetOrigin: de.AsOrigin()})

	events := eventsOf(h.run(command.SetSerializedNodeProperties{
		ContentStreamID:           cs1,
		NodeAggregateID:           "home",
		OriginDimensionSpacePoint: mul.AsOrigin(),
		PropertyValues: node.SerializedPropertyValues{
			"title": value("Hello"),
			"slug":  value("hello"),
			"theme": value("dark"),
		},
	}))
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	general := events[0].(event.NodePropertiesWereSet)
	if !general.OriginDimensionSpacePoint.Equal(mul.AsOrigin()) || len(general.PropertyValues) != 3 {
		t.Fatalf("first event = %+v", general)
	}
	expectPoints(t, "mul affected", general.AffectedDimensionSpacePoints, points(mul, en))
	special := events[1].(event.NodePropertiesWereSet)
	if !special.OriginDimensionSpacePoint.Equal(de.AsOrigin()) {
		t.Fatalf("second origin = %s", special.OriginDimensionSpacePoint)
	}
	if _, ok := special.PropertyValues["title"]; ok || len(special.PropertyValues) != 2 {
		t.Fatalf("specialization values = %v", special.PropertyValues)
	}
	expectPoints(t, "de affected", special.AffectedDimensionSpacePoints, points(de, gsw))

	events = eventsOf(h.run(command.SetSerializedNodeProperties{
		ContentStreamID:           cs1,
		NodeAggregateID:           "home",
		OriginDimensionSpacePoint: de.AsOrigin(),
		PropertyValues:            node.SerializedPropertyValues{"slug": value("hallo")},
	}))
	if len(events) != 1 || !events[0].(event.NodePropertiesWereSet).OriginDimensionSpacePoint.Equal(de.AsOrigin()) {
		t.Fatalf("specialization scope from de = %v", events)
	}

	events = eventsOf(h.run(command.SetSerializedNodeProperties{
		ContentStreamID:           cs1,
		NodeAggregateID:           "home",
		OriginDimensionSpacePoint: de.AsOrigin(),
		PropertyValues:            node.SerializedPropertyValues{"theme": value("light")},
	}))
	if len(events) != 2 || !events[0].(event.NodePropertiesWereSet).OriginDimensionSpacePoint.Equal(de.AsOrigin()) {
		t.Fatalf("aggregate scope from de = %v", events)
	}

	h.fail(command.SetSerializedNodeProperties{
		ContentStreamID: cs1, NodeAggregateID: "home", OriginDimensionSpacePoint: en.AsOrigin(),
		PropertyValues: node.SerializedPropertyValues{"title": value("x")},
	}, apperrors.CodeDimensionSpacePointIsNotYetOccupied)
	h.fail(command.SetSerializedNodeProperties{
		ContentStreamID: cs1, NodeAggregateID: "home", OriginDimensionSpacePoint: mul.AsOrigin(),
		PropertyValues: node.SerializedPropertyValues{"title": {Value: 42, Type: "int"}},
	}, apperrors.CodePropertyCannotBeSet)
	h.fail(command.SetSerializedNodeProperties{
		ContentStreamID: cs1, NodeAggregateID: "missing", OriginDimensionSpacePoint: mul.AsOrigin(),
		PropertyValues: node.SerializedPropertyValues{"title": value("x")},
	}, apperrors.CodeNodeAggregateCurrentlyDoesNotExist)
}

func TestSetSerializedNodeReferences(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", mul)
	h.createNode("alice", "Acme:Person", "root", "alice", mul)

	events := eventsOf(h.run(command.SetSerializedNodeReferences{
		ContentStreamID:                 cs1,
		SourceNodeAggregateID:           "home",
		SourceOriginDimensionSpacePoint: mul.AsOrigin(),
		ReferenceName:                   "author",
		References:                      node.NodeReferencesToWrite{{TargetNodeAggregateID: "alice"}},
	}))
	if len(events) != 1 {
		t.Fatalf("events = %d", len(events))
	}
	set := events[0].(event.NodeReferencesWereSet)
	if !set.AffectedSourceOriginDimensionSpacePoints.Equal(dimension.NewOriginDimensionSpacePointSet(mul.AsOrigin())) {
		t.Fatalf("affected origins = %s", set.AffectedSourceOriginDimensionSpacePoints)
	}
	n, _ := h.aggregate("home").NodeByOccupiedDimensionSpacePoint(mul.AsOrigin())
	if refs := n.References["author"]; len(refs) != 1 || refs[0].TargetNodeAggregateID != "alice" {
		t.Fatalf("projected references = %v", n.References)
	}

	tests := []struct {
		name   string
		ref    node.ReferenceName
		target node.NodeAggregateID
		code   apperrors.Code
	}{
		{name: "undeclared", ref: "editor", target: "alice", code: apperrors.CodeReferenceNotDeclared},
		{name: "target type", ref: "author", target: "home-main", code: apperrors.CodeReferenceConstraintsNotMatched},
		{name: "missing target", ref: "author", target: "bob", code: apperrors.CodeNodeAggregateCurrentlyDoesNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.fail(command.SetSerializedNodeReferences{
				ContentStreamID:                 cs1,
				SourceNodeAggregateID:           "home",
				SourceOriginDimensionSpacePoint: mul.AsOrigin(),
				ReferenceName:                   tt.ref,
				References:                      node.NodeReferencesToWrite{{TargetNodeAggregateID: tt.target}},
			}, tt.code)
		})
	}
}

func TestDisableAndEnableNodeAggregate(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", mul)

	disabled := eventsOf(h.run(command.DisableNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: mul}))
	expectPoints(t, "disabled", disabled[0].(event.NodeAggregateWasDisabled).AffectedDimensionSpacePoints, points(mul, de, gsw, en))
	if !h.aggregate("home").DisablesDimensionSpacePoint(gsw) {
		t.Fatalf("gsw not disabled")
	}
	h.fail(command.DisableNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: de},
		apperrors.CodeNodeAggregateCurrentlyDisablesPoint)
	h.fail(command.DisableNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: fr},
		apperrors.CodeNodeAggregateDoesCurrentlyNotCoverPoint)

	enabled := eventsOf(h.run(command.EnableNodeAggregate{
		ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: de,
		NodeVariantSelectionStrategy: node.VariantSelectionAllSpecializations,
	}))
	expectPoints(t, "enabled", enabled[0].(event.NodeAggregateWasEnabled).AffectedDimensionSpacePoints, points(de, gsw))
	home := h.aggregate("home")
	if home.DisablesDimensionSpacePoint(gsw) || !home.DisablesDimensionSpacePoint(en) {
		t.Fatalf("disabled points = %s", home.DimensionSpacePointsTaggedWith(node.SubtreeTagDisabled))
	}
	h.fail(command.EnableNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: gsw},
		apperrors.CodeNodeAggregateCurrentlyDoesNotDisablePoint)
}

func TestTagAndUntagSubtree(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", mul)

	tagged := eventsOf(h.run(command.TagSubtree{
		ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: en,
		NodeVariantSelectionStrategy: node.VariantSelectionAllVariants, Tag: "archived",
	}))
	expectPoints(t, "tagged", tagged[0].(event.SubtreeWasTagged).AffectedDimensionSpacePoints, points(mul, de, gsw, en))
	h.fail(command.TagSubtree{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: mul, Tag: "archived"},
		apperrors.CodeSubtreeIsAlreadyTagged)

	untagged := eventsOf(h.run(command.UntagSubtree{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: de, Tag: "archived"}))
	expectPoints(t, "untagged", untagged[0].(event.SubtreeWasUntagged).AffectedDimensionSpacePoints, points(de, gsw))
	h.fail(command.UntagSubtree{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: gsw, Tag: "archived"},
		apperrors.CodeSubtreeIsNotTagged)
}

func TestRemoveNodeAggregate(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", mul)
	h.run(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home", SourceOrigin: mul.AsOrigin(), TargetOrigin: de.AsOrigin()})

	events := eventsOf(h.run(command.RemoveNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: de}))
	removed := events[0].(event.NodeAggregateWasRemoved)
	expectPoints(t, "removed covered", removed.AffectedCoveredDimensionSpacePoints, points(de, gsw))
	if !removed.AffectedOccupiedDimensionSpacePoints.Equal(dimension.NewOriginDimensionSpacePointSet(de.AsOrigin())) {
		t.Fatalf("removed occupied = %s", removed.AffectedOccupiedDimensionSpacePoints)
	}
	expectPoints(t, "remaining coverage", h.aggregate("home").CoveredDimensionSpacePoints(), points(mul, en))
	expectPoints(t, "tethered coverage", h.aggregate("home-main").CoveredDimensionSpacePoints(), points(mul, en))

	h.fail(command.RemoveNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "root", CoveredDimensionSpacePoint: mul},
		apperrors.CodeNodeAggregateIsRoot)
	h.fail(command.RemoveNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "home-main", CoveredDimensionSpacePoint: mul},
		apperrors.CodeNodeAggregateIsTethered)
	h.fail(command.RemoveNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "home", CoveredDimensionSpacePoint: gsw},
		apperrors.CodeNodeAggregateDoesCurrentlyNotCoverPoint)
}

func TestCreateNodeVariant(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", mul)

	events := eventsOf(h.run(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home", SourceOrigin: mul.AsOrigin(), TargetOrigin: de.AsOrigin()}))
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	specialization := events[0].(event.NodeSpecializationVariantWasCreated)
	expectPoints(t, "specialization coverage", specialization.SpecializationCoverage, points(de, gsw))
	if tethered := events[1].(event.NodeSpecializationVariantWasCreated); tethered.NodeAggregateID != "home-main" {
		t.Fatalf("tethered variant = %+v", tethered)
	}
	home := h.aggregate("home")
	if origin, _ := home.OccupationByCovered(gsw); !origin.Equal(de.AsOrigin()) {
		t.Fatalf("gsw occupied by %s", origin)
	}

	events = eventsOf(h.run(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home", SourceOrigin: mul.AsOrigin(), TargetOrigin: fr.AsOrigin()}))
	peer := events[0].(event.NodePeerVariantWasCreated)
	expectPoints(t, "peer coverage", peer.PeerCoverage, points(fr))

	h.createPage("about", "root", "about", gsw)
	events = eventsOf(h.run(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "about", SourceOrigin: gsw.AsOrigin(), TargetOrigin: mul.AsOrigin()}))
	generalization := events[0].(event.NodeGeneralizationVariantWasCreated)
	expectPoints(t, "generalization coverage", generalization.GeneralizationCoverage, points(mul, de, en))
	expectPoints(t, "about coverage", h.aggregate("about").CoveredDimensionSpacePoints(), points(mul, de, gsw, en))

	h.fail(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home", SourceOrigin: mul.AsOrigin(), TargetOrigin: de.AsOrigin()},
		apperrors.CodeDimensionSpacePointIsAlreadyOccupied)
	h.fail(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home", SourceOrigin: en.AsOrigin(), TargetOrigin: gsw.AsOrigin()},
		apperrors.CodeDimensionSpacePointIsNotYetOccupied)
	h.fail(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home-main", SourceOrigin: mul.AsOrigin(), TargetOrigin: en.AsOrigin()},
		apperrors.CodeNodeAggregateIsTethered)
}

func TestCreateNodeVariantRejectsCoveredName(t *testing.T) {
	h := newHarness(t)
	h.createPage("x", "root", "news", en)
	h.createPage("y", "root", "news", de)
	h.fail(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "x", SourceOrigin: en.AsOrigin(), TargetOrigin: mul.AsOrigin()},
		apperrors.CodeNodeNameIsAlreadyCovered)
}

func TestChangeNodeAggregateName(t *testing.T) {
	h := newHarness(t)
	h.createPage("home", "root", "home", mul)
	h.createPage("about", "root", "about", mul)
	h.createNode("intro", "Acme:Text", "home", "intro", mul)

	events := eventsOf(h.run(command.ChangeNodeAggregateName{ContentStreamID: cs1, NodeAggregateID: "home", NewNodeName: "start"}))
	if changed := events[0].(event.NodeAggregateNameWasChanged); changed.NewNodeName != "start" {
		t.Fatalf("event = %+v", changed)
	}
	if name := h.aggregate("home").NodeName; name != "start" {
		t.Fatalf("projected name = %s", name)
	}

	h.fail(command.ChangeNodeAggregateName{ContentStreamID: cs1, NodeAggregateID: "home", NewNodeName: "about"},
		apperrors.CodeNodeNameIsAlreadyCovered)
	h.fail(command.ChangeNodeAggregateName{ContentStreamID: cs1, NodeAggregateID: "home-main", NewNodeName: "body"},
		apperrors.CodeNodeAggregateIsTethered)
	h.fail(command.ChangeNodeAggregateName{ContentStreamID: cs1, NodeAggregateID: "intro", NewNodeName: "main"},
		apperrors.CodeNodeConstraintViolation)
}

func TestChangeNodeAggregateType(t *testing.T) {
	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		h.createPage("home", "root", "home", mul)
		h.run(command.CreateNodeVariant{ContentStreamID: cs1, NodeAggregateID: "home", SourceOrigin: mul.AsOrigin(), TargetOrigin: de.AsOrigin()})
		h.createNode("intro", "Acme:Text", "home", "intro", mul)
		return h
	}

	t.Run("happy path rejects forbidden children", func(t *testing.T) {
		h := setup(t)
		h.fail(command.ChangeNodeAggregateType{ContentStreamID: cs1, NodeAggregateID: "home", NewNodeTypeName: "Acme:Landing", Strategy: command.TypeChangeHappyPath},
			apperrors.CodeNodeConstraintViolation)
	})

	t.Run("delete removes forbidden children", func(t *testing.T) {
		h := setup(t)
		batch := h.run(command.ChangeNodeAggregateType{ContentStreamID: cs1, NodeAggregateID: "home", NewNodeTypeName: "Acme:Landing", Strategy: command.TypeChangeDelete})
		var changed, removed, created, varied int
		for _, evt := range eventsOf(batch) {
			switch evt.(type) {
			case event.NodeAggregateTypeWasChanged:
				changed++
			case event.NodeAggregateWasRemoved:
				removed++
			case event.NodeAggregateWithNodeWasCreated:
				created++
			case event.NodeSpecializationVariantWasCreated, event.NodeGeneralizationVariantWasCreated:
				varied++
			default:
				t.Fatalf("unexpected %T", evt)
			}
		}
		if changed != 1 || removed != 2 || created != 1 || varied != 1 {
			t.Fatalf("changed=%d removed=%d created=%d varied=%d", changed, removed, created, varied)
		}
		if h.aggregate("home").NodeTypeName != "Acme:Landing" {
			t.Fatalf("type not changed")
		}
		for _, gone := range []node.NodeAggregateID{"home-main", "intro"} {
			if agg, _ := h.graph.FindNodeAggregateByID(cs1, gone); agg != nil {
				t.Fatalf("%s still exists", gone)
			}
		}
		heroes, err := h.graph.FindChildNodeAggregatesByName(cs1, "home", "hero")
		if err != nil || len(heroes) != 1 {
			t.Fatalf("hero = %v, %v", heroes, err)
		}
		expectPoints(t, "hero coverage", heroes[0].CoveredDimensionSpacePoints(), points(mul, de, gsw, en))
		if heroes[0].OccupiedDimensionSpacePoints().Len() != 2 {
			t.Fatalf("hero occupies %s", heroes[0].OccupiedDimensionSpacePoints())
		}
	})

	t.Run("rejections", func(t *testing.T) {
		h := setup(t)
		h.fail(command.ChangeNodeAggregateType{ContentStreamID: cs1, NodeAggregateID: "home", NewNodeTypeName: "Acme:Abstract", Strategy: command.TypeChangeDelete},
			apperrors.CodeNodeTypeIsAbstract)
		h.fail(command.ChangeNodeAggregateType{ContentStreamID: cs1, NodeAggregateID: "home-main", NewNodeTypeName: "Acme:Folder", Strategy: command.TypeChangeDelete},
			apperrors.CodeNodeAggregateIsTethered)
		h.fail(command.ChangeNodeAggregateType{ContentStreamID: cs1, NodeAggregateID: "intro", NewNodeTypeName: "Acme:Person", Strategy: command.TypeChangeDelete},
			apperrors.CodeNodeConstraintViolation)
	})
}

func TestMoveNodeAggregate(t *testing.T) {
	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		h.createPage("a", "root", "a", mul)
		h.createPage("b", "root", "b", mul)
		h.createPage("c", "a", "c", mul)
		return h
	}

	t.Run("gathers specializations", func(t *testing.T) {
		h := setup(t)
		events := eventsOf(h.run(command.MoveNodeAggregate{ContentStreamID: cs1, NodeAggregateID: "c", DimensionSpacePoint: mul, NewParentNodeAggregateID: "b"}))
		expectPoints(t, "moved", events[0].(event.NodeAggregateWasMoved).AffectedDimensionSpacePoints, points(mul, de, gsw, en))
		if parent, _ := h.aggregate("c").ParentNodeAggregateID(gsw); parent != "b" {
			t.Fatalf("parent in gsw = %s", parent)
		}
	})

	t.Run("scatters", func(t *testing.T) {
		h := setup(t)
		events := eventsOf(h.run(command.MoveNodeAggregate{
			ContentStreamID: cs1, NodeAggregateID: "c", DimensionSpacePoint: de, NewParentNodeAggregateID: "b",
			RelationDistributionStrategy: node.RelationDistributionScatter,
		}))
		expectPoints(t, "moved", events[0].(event.NodeAggregateWasMoved).AffectedDimensionSpacePoints, points(de))
		c := h.aggregate("c")
		if parent, _ := c.ParentNodeAggregateID(gsw); parent != "a" {
			t.Fatalf("parent in gsw = %s", parent)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		h := setup(t)
		h.createPage("d", "root", "d", de)
		h.createPage("e", "b", "c", mul)
		tests := []struct {
			name     string
			id       node.NodeAggregateID
			parent   node.NodeAggregateID
			strategy node.RelationDistributionStrategy
			code     apperrors.Code
		}{
			{name: "into descendant", id: "a", parent: "c", code: apperrors.CodeNodeAggregateIsDescendant},
			{name: "into itself", id: "a", parent: "a", code: apperrors.CodeNodeAggregateIsDescendant},
			{name: "no parent", id: "c", code: apperrors.CodeInvalidArgument},
			{name: "parent not covering", id: "c", parent: "d", strategy: node.RelationDistributionGatherAll, code: apperrors.CodeNodeAggregateDoesCurrentlyNotCoverPointSet},
			{name: "tethered slot", id: "c", parent: "a-main", code: apperrors.CodeNodeConstraintViolation},
			{name: "name taken", id: "c", parent: "b", code: apperrors.CodeNodeNameIsAlreadyCovered},
			{name: "root", id: "root", parent: "b", code: apperrors.CodeNodeAggregateIsRoot},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h.fail(command.MoveNodeAggregate{
					ContentStreamID: cs1, NodeAggregateID: tt.id, DimensionSpacePoint: mul,
					NewParentNodeAggregateID: tt.parent, RelationDistributionStrategy: tt.strategy,
				}, tt.code)
			})
		}
	})
}

type unknownNodeCommand struct {
	command.TagSubtree
}

func TestHandleRejectsUnknownCommand(t *testing.T) {
	h := newHarness(t)
	h.fail(unknownNodeCommand{command.TagSubtree{ContentStreamID: cs1, NodeAggregateID: "root"}}, apperrors.CodeUnknownCommand)
}
