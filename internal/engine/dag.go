package engine

import (
	"context"
	"sort"
)

// Node — узел статического графа задач.
type Node struct {
	Task Task
	ID   string

	// InDegree — количество зависимостей узла.
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// DAG — полное замыкание зависимостей корней, без учёта готовности.
//
// Resolver не строит DAG: он обходит граф лениво и не спускается в
// готовые поддеревья. DAG нужен для инспекции (Plan, eggo status).
type DAG struct {
	// Nodes — все узлы графа (ID → Node).
	Nodes map[string]*Node

	// RootNodes — задачи без зависимостей (листья, выполняются первыми).
	RootNodes []*Node

	// Order — топологический порядок: зависимости раньше зависимых.
	Order []*Node
}

// BuildDAG строит замыкание зависимостей корней.
func BuildDAG(roots ...Task) (*DAG, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	dag := &DAG{Nodes: make(map[string]*Node)}

	// Первый проход: собираем замыкание в порядке обнаружения
	var discovered []*Node
	queue := make([]Task, 0, len(roots))
	queue = append(queue, roots...)

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		if _, ok := dag.Nodes[t.ID()]; ok {
			continue
		}
		node := &Node{Task: t, ID: t.ID()}
		dag.Nodes[node.ID] = node
		discovered = append(discovered, node)

		queue = append(queue, t.Requires()...)
	}

	// Второй проход: связываем узлы
	for _, node := range discovered {
		for _, dep := range node.Task.Requires() {
			dag.addEdge(dag.Nodes[dep.ID()], node)
		}
	}

	dag.findRootNodes()

	order, err := dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	dag.Order = order

	return dag, nil
}

// addEdge добавляет ребро dep → node, пропуская дубликаты.
func (d *DAG) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRootNodes находит узлы без входящих рёбер (в стабильном порядке).
func (d *DAG) findRootNodes() {
	d.RootNodes = make([]*Node, 0)
	for _, node := range d.Nodes {
		if node.InDegree == 0 {
			d.RootNodes = append(d.RootNodes, node)
		}
	}
	sort.Slice(d.RootNodes, func(i, j int) bool {
		return d.RootNodes[i].ID < d.RootNodes[j].ID
	})
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Узлы, оставшиеся необработанными, образуют цикл.
func (d *DAG) topologicalSort() ([]*Node, error) {
	inDegree := make(map[string]int, len(d.Nodes))
	for id, node := range d.Nodes {
		inDegree[id] = node.InDegree
	}

	queue := make([]*Node, len(d.RootNodes))
	copy(queue, d.RootNodes)

	order := make([]*Node, 0, len(d.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(d.Nodes) {
		var cyclic []string
		for id, deg := range inDegree {
			if deg > 0 {
				cyclic = append(cyclic, id)
			}
		}
		sort.Strings(cyclic)
		return nil, &GraphError{Path: cyclic}
	}

	return order, nil
}

// GetNode возвращает узел по ID.
func (d *DAG) GetNode(id string) *Node {
	return d.Nodes[id]
}

// Size возвращает количество узлов в DAG.
func (d *DAG) Size() int {
	return len(d.Nodes)
}

// PlanEntry — задача в плане с её состоянием готовности.
type PlanEntry struct {
	ID       string
	Complete bool
	Requires []string
	Outputs  []string
}

// Plan строит DAG и проверяет готовность каждой задачи, ничего не выполняя.
// Порядок записей — топологический.
func Plan(ctx context.Context, roots ...Task) ([]PlanEntry, error) {
	dag, err := BuildDAG(roots...)
	if err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, len(dag.Order))
	for _, node := range dag.Order {
		complete, err := Complete(ctx, node.Task)
		if err != nil {
			return nil, &TaskError{TaskID: node.ID, Err: err}
		}

		entry := PlanEntry{ID: node.ID, Complete: complete}
		for _, dep := range node.DependsOn {
			entry.Requires = append(entry.Requires, dep.ID)
		}
		for _, out := range node.Task.Outputs() {
			entry.Outputs = append(entry.Outputs, out.String())
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
