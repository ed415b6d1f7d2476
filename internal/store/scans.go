package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/modgraph/modgraph/internal/graph"
)

// ScanInfo summarizes one persisted scan run.
type ScanInfo struct {
	ID        int64  `json:"id"`
	Project   string `json:"project"`
	RootPath  string `json:"root_path"`
	Digest    string `json:"digest"`
	FileCount int    `json:"file_count"`
	CreatedAt string `json:"created_at"`
	Modules   int    `json:"modules"`
	Edges     int    `json:"edges"`
}

// SaveScan persists a completed graph as a new scan row. The whole snapshot
// commits atomically.
func (s *Store) SaveScan(project, rootPath, digest string, fileCount int, g *graph.Graph) (int64, error) {
	var scanID int64
	err := s.WithTransaction(func(tx *Store) error {
		res, err := tx.q.Exec(
			`INSERT INTO scans (project, root_path, digest, file_count) VALUES (?, ?, ?, ?)`,
			project, rootPath, digest, fileCount)
		if err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}
		scanID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		for _, m := range g.Modules() {
			if _, err := tx.q.Exec(
				`INSERT INTO scan_modules (scan_id, module) VALUES (?, ?)`, scanID, m); err != nil {
				return fmt.Errorf("insert module: %w", err)
			}
		}
		for _, e := range g.Edges() {
			fns, err := json.Marshal(e.Functions)
			if err != nil {
				return err
			}
			if _, err := tx.q.Exec(
				`INSERT INTO scan_edges (scan_id, from_module, to_module, functions) VALUES (?, ?, ?, ?)`,
				scanID, e.From, e.To, string(fns)); err != nil {
				return fmt.Errorf("insert edge: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return scanID, nil
}

// LatestScan returns the most recent scan for a project with its graph.
func (s *Store) LatestScan(project string) (*ScanInfo, *graph.Graph, error) {
	info, err := s.scanInfo(
		`SELECT id, project, root_path, digest, file_count, created_at
		 FROM scans WHERE project=? ORDER BY id DESC LIMIT 1`, project)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.loadGraph(info.ID)
	if err != nil {
		return nil, nil, err
	}
	info.Modules = len(g.Modules())
	info.Edges = g.EdgeCount()
	return info, g, nil
}

// GetScan returns a scan by id with its graph.
func (s *Store) GetScan(id int64) (*ScanInfo, *graph.Graph, error) {
	info, err := s.scanInfo(
		`SELECT id, project, root_path, digest, file_count, created_at
		 FROM scans WHERE id=?`, id)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.loadGraph(info.ID)
	if err != nil {
		return nil, nil, err
	}
	info.Modules = len(g.Modules())
	info.Edges = g.EdgeCount()
	return info, g, nil
}

func (s *Store) scanInfo(query string, args ...any) (*ScanInfo, error) {
	var info ScanInfo
	err := s.q.QueryRow(query, args...).Scan(
		&info.ID, &info.Project, &info.RootPath, &info.Digest, &info.FileCount, &info.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	return &info, nil
}

// loadGraph reconstructs a graph from its persisted modules and edges.
func (s *Store) loadGraph(scanID int64) (*graph.Graph, error) {
	g := graph.New()

	rows, err := s.q.Query(`SELECT module FROM scan_modules WHERE scan_id=?`, scanID)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		g.AddModule(m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	erows, err := s.q.Query(
		`SELECT from_module, to_module, functions FROM scan_edges WHERE scan_id=?`, scanID)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var from, to, fnJSON string
		if err := erows.Scan(&from, &to, &fnJSON); err != nil {
			return nil, err
		}
		var fns []string
		if err := json.Unmarshal([]byte(fnJSON), &fns); err != nil {
			return nil, fmt.Errorf("edge functions: %w", err)
		}
		for _, fn := range fns {
			g.AddCall(from, to, fn)
		}
	}
	return g, erows.Err()
}

// ListScans returns all scans, newest first, with module/edge counts.
func (s *Store) ListScans() ([]ScanInfo, error) {
	rows, err := s.q.Query(
		`SELECT s.id, s.project, s.root_path, s.digest, s.file_count, s.created_at,
		        (SELECT COUNT(*) FROM scan_modules m WHERE m.scan_id = s.id),
		        (SELECT COUNT(*) FROM scan_edges e WHERE e.scan_id = s.id)
		 FROM scans s ORDER BY s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []ScanInfo
	for rows.Next() {
		var info ScanInfo
		if err := rows.Scan(&info.ID, &info.Project, &info.RootPath, &info.Digest,
			&info.FileCount, &info.CreatedAt, &info.Modules, &info.Edges); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteScan removes a scan and its graph data.
func (s *Store) DeleteScan(id int64) error {
	res, err := s.q.Exec(`DELETE FROM scans WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("scan not found: %d", id)
	}
	return nil
}

// CountScans returns the number of persisted scans.
func (s *Store) CountScans() (int, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&n)
	return n, err
}

// CountEdges returns the number of persisted edges for a scan.
func (s *Store) CountEdges(scanID int64) (int, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM scan_edges WHERE scan_id=?`, scanID).Scan(&n)
	return n, err
}
