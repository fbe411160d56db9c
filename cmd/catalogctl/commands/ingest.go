package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yigit/coursecake/internal/app/models/dto"
	"github.com/yigit/coursecake/internal/pkg/logger"
	"gopkg.in/yaml.v3"
)

var ingestFlags struct {
	university string
	term       string
	file       string
	add        bool
	classes    bool
}

func init() {
	f := ingestCmd.Flags()
	f.StringVarP(&ingestFlags.university, "university", "u", "", "University the catalog belongs to.")
	f.StringVarP(&ingestFlags.term, "term", "t", "", "Term id, e.g. 2021-SPRING.")
	f.StringVarP(&ingestFlags.file, "file", "f", "", "JSON or YAML payload: {\"courses\": [...]} or, with --classes, {\"classes\": [...]}.")
	f.BoolVar(&ingestFlags.add, "add", false, "Insert courses instead of merging them; existing courses fail the run.")
	f.BoolVar(&ingestFlags.classes, "classes", false, "The file holds detached classes to merge under existing courses.")
	_ = ingestCmd.MarkFlagRequired("university")
	_ = ingestCmd.MarkFlagRequired("term")
	_ = ingestCmd.MarkFlagRequired("file")
	ingestCmd.MarkFlagsMutuallyExclusive("add", "classes")
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest --university <name> --term <term> --file <payload.json>",
	Short: "Loads a scraped term into the catalog in one transaction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(ingestFlags.file)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}

		ctx := cmd.Context()
		catalog, pool, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		start := time.Now()
		var result dto.WriteResult
		if ingestFlags.classes {
			var payload dto.ClassesRequest
			if err := decodePayload(ingestFlags.file, raw, &payload); err != nil {
				return err
			}
			if err := catalog.BulkMergeClasses(ctx, ingestFlags.university, ingestFlags.term, payload.Classes); err != nil {
				return err
			}
			result.Classes = len(payload.Classes)
		} else {
			var payload dto.CoursesRequest
			if err := decodePayload(ingestFlags.file, raw, &payload); err != nil {
				return err
			}
			write := catalog.BulkMergeCourses
			if ingestFlags.add {
				write = catalog.BulkAddCourses
			}
			if err := write(ctx, ingestFlags.university, ingestFlags.term, payload.Courses); err != nil {
				return err
			}
			result.Courses = len(payload.Courses)
			for _, course := range payload.Courses {
				result.Classes += len(course.Classes)
			}
		}
		result.University, result.TermID = ingestFlags.university, ingestFlags.term

		logger.Info().
			Str("university", result.University).
			Str("term", result.TermID).
			Int("courses", result.Courses).
			Int("classes", result.Classes).
			Dur("took", time.Since(start)).
			Msg("Ingest finished")
		return writeJSON(cmd, result)
	},
}

// decodePayload reads JSON, or YAML for .yaml/.yml files. YAML is normalized
// through JSON so the models' json tags apply to both.
func decodePayload(path string, raw []byte, out interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var doc interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse yaml payload: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("convert yaml payload: %w", err)
		}
		raw = converted
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse json payload: %w", err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
