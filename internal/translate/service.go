// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/validate"
	"github.com/taibuivan/kurso/internal/publish"
)

// # Translation Orchestrator

// ExportUnit is one translatable string extracted by the builder's export
// run: the file it came from, the owning record, the JSON path inside it and
// the source-language value.
type ExportUnit struct {
	File  string `json:"file"`
	ID    string `json:"id"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// structuralKeys are lifted into typed Record fields during the graph
// rebuild and must not survive inside the property bag.
var structuralKeys = []string{"_id", "_type", "_parentId", "_courseId", "_sortOrder"}

// Service translates whole courses. It reuses the publish pipeline's
// assembler, sanitizer and builder contract, then rebuilds the translated
// tree as a brand-new course graph.
type Service struct {
	repo      content.Repository
	creator   *content.Creator
	assembler *publish.Assembler
	runner    publish.ToolRunner
	layout    publish.Layout
	client    Client
	assets    content.AssetCloner
	logger    *slog.Logger
}

// NewService constructs the translate [Service].
func NewService(
	repo content.Repository,
	creator *content.Creator,
	assembler *publish.Assembler,
	runner publish.ToolRunner,
	layout publish.Layout,
	client Client,
	assets content.AssetCloner,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		creator:   creator,
		assembler: assembler,
		runner:    runner,
		layout:    layout,
		client:    client,
		assets:    assets,
		logger:    logger,
	}
}

// TranslateText translates a single string.
func (service *Service) TranslateText(ctx context.Context, text, to string) (string, error) {
	validator := &validate.Validator{}
	validator.Required("text", text).Required("to", to)
	if err := validator.Err(); err != nil {
		return "", err
	}
	return service.client.TranslateText(ctx, text, to)
}

// Languages lists the supported target languages.
func (service *Service) Languages(ctx context.Context) (map[string]Language, error) {
	return service.client.Languages(ctx)
}

/*
TranslateCourse produces a new course in the target language.

Description: The source graph is assembled, sanitized and written to the
framework layout, then the builder extracts its translatable strings. Every
unit is sent to the translation service strictly sequentially; the first
failing unit aborts the whole run before anything is persisted. The builder
splices the translated strings into a target-language tree, and that tree is
recreated as a new course graph under a fresh identifier space inside one
transaction, so a failure at any point leaves no partial course behind. The
new course keeps the original theme and custom style (styling is not
translatable); its config carries the target language and that language's
declared text direction. Asset join rows are cloned onto the new graph after
it commits.

Parameters:
  - ctx: context.Context
  - tenantID: string
  - courseID: string (the source course)
  - userID: string (creator attribution for the new graph)
  - targetLang: string (target language code)

Returns:
  - string: The new course identifier
  - error: NotFound, BuildTool, TranslationService or rebuild errors
*/
func (service *Service) TranslateCourse(ctx context.Context, tenantID, courseID, userID, targetLang string) (string, error) {
	validator := &validate.Validator{}
	validator.Required("targetLang", targetLang)
	if err := validator.Err(); err != nil {
		return "", err
	}

	source, err := service.repo.FindCourse(ctx, tenantID, courseID)
	if err != nil {
		return "", err
	}

	tree, err := service.assembler.Assemble(ctx, tenantID, courseID)
	if err != nil {
		return "", err
	}
	publish.Sanitize(tree, publish.ModeExport)

	if err := publish.WriteCourseJSON(service.layout, tree, tenantID, courseID); err != nil {
		return "", err
	}

	units, err := service.exportUnits(ctx, tenantID, courseID, targetLang)
	if err != nil {
		return "", err
	}

	if err := service.translateUnits(ctx, units, targetLang); err != nil {
		return "", err
	}

	translated, err := service.importTranslatedTree(ctx, tenantID, courseID, targetLang, units)
	if err != nil {
		return "", err
	}

	direction := service.textDirection(ctx, targetLang)

	newCourseID, err := service.rebuildGraph(ctx, source, translated, userID, targetLang, direction)
	if err != nil {
		return "", err
	}

	service.logger.Info("course translated",
		slog.String("course_id", courseID),
		slog.String("new_course_id", newCourseID),
		slog.String("target_lang", targetLang),
	)
	return newCourseID, nil
}

// exportUnits runs the builder's string extraction and loads the units.
func (service *Service) exportUnits(ctx context.Context, tenantID, courseID, targetLang string) ([]ExportUnit, error) {
	result := service.runner.RunExport(ctx, service.layout.BuilderOutputDir(tenantID, courseID), targetLang)
	if err := toolError("string export", result); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(service.layout.ExportFile(tenantID, courseID, targetLang))
	if err != nil {
		return nil, fmt.Errorf("translate: failed to read export file: %w", err)
	}
	var units []ExportUnit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, fmt.Errorf("translate: failed to decode export file: %w", err)
	}
	return units, nil
}

// translateUnits sends every unit to the translation service, one at a time.
// The first failure aborts; by then nothing has been persisted.
func (service *Service) translateUnits(ctx context.Context, units []ExportUnit, targetLang string) error {
	for i := range units {
		if units[i].Value == "" {
			continue
		}
		translated, err := service.client.TranslateText(ctx, units[i].Value, targetLang)
		if err != nil {
			return fmt.Errorf("translate: unit %s %s: %w", units[i].ID, units[i].Path, err)
		}
		units[i].Value = translated
	}
	return nil
}

// importTranslatedTree writes the translated units back, runs the builder's
// import and reads the resulting target-language tree off disk.
func (service *Service) importTranslatedTree(ctx context.Context, tenantID, courseID, targetLang string, units []ExportUnit) (*publish.CourseJSON, error) {
	data, err := json.MarshalIndent(units, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("translate: failed to serialize translated units: %w", err)
	}
	if err := os.WriteFile(service.layout.ExportFile(tenantID, courseID, targetLang), data, 0o644); err != nil {
		return nil, fmt.Errorf("translate: failed to write translated units: %w", err)
	}

	result := service.runner.RunImport(ctx, service.layout.BuilderOutputDir(tenantID, courseID), targetLang)
	if err := toolError("string import", result); err != nil {
		return nil, err
	}

	return service.readTree(tenantID, courseID, targetLang)
}

// readTree loads a language tree from the framework layout.
func (service *Service) readTree(tenantID, courseID, lang string) (*publish.CourseJSON, error) {
	tree := &publish.CourseJSON{}
	langDir := service.layout.LanguageDir(tenantID, courseID, lang)

	files := []struct {
		path   string
		target any
	}{
		{filepath.Join(service.layout.CourseJSONDir(tenantID, courseID), "config.json"), &tree.Config},
		{filepath.Join(langDir, "course.json"), &tree.Course},
		{filepath.Join(langDir, "contentObjects.json"), &tree.ContentObjects},
		{filepath.Join(langDir, "articles.json"), &tree.Articles},
		{filepath.Join(langDir, "blocks.json"), &tree.Blocks},
		{filepath.Join(langDir, "components.json"), &tree.Components},
	}
	for _, file := range files {
		data, err := os.ReadFile(file.path)
		if err != nil {
			return nil, fmt.Errorf("translate: failed to read %s: %w", filepath.Base(file.path), err)
		}
		if err := json.Unmarshal(data, file.target); err != nil {
			return nil, fmt.Errorf("translate: failed to decode %s: %w", filepath.Base(file.path), err)
		}
	}
	return tree, nil
}

// textDirection resolves the target language's declared direction, degrading
// to left-to-right when the listing is unavailable.
func (service *Service) textDirection(ctx context.Context, targetLang string) string {
	languages, err := service.client.Languages(ctx)
	if err != nil {
		service.logger.Error("could not resolve text direction, assuming ltr",
			slog.String("target_lang", targetLang),
			slog.String("error", err.Error()),
		)
		return "ltr"
	}
	if language, ok := languages[targetLang]; ok && language.Dir != "" {
		return language.Dir
	}
	return "ltr"
}

/*
rebuildGraph recreates the translated tree as a new course graph.

Description: Runs entirely inside one transaction. The course root is created
first, then the config singleton, then content objects parents-before-children
and finally articles, blocks and components, with every parent reference
remapped through the shared identifier map. The course root keeps the source's
custom style and theme variables; the config's language and direction are
overwritten with the target values. Start page references are remapped last.

Parameters:
  - ctx: context.Context
  - source: *content.Record (the source course root, for inherited styling)
  - translated: *publish.CourseJSON (the imported target-language tree)
  - userID, targetLang, direction: string

Returns:
  - string: The new course identifier
  - error: Any creation failure, rolling back the whole graph
*/
func (service *Service) rebuildGraph(ctx context.Context, source *content.Record, translated *publish.CourseJSON, userID, targetLang, direction string) (string, error) {
	var newCourseID string
	idMap := map[string]string{}

	err := service.repo.InTx(ctx, func(tx content.Repository) error {
		creator := service.creator.WithRepository(tx)

		// 1. Course root, with styling inherited from the source.
		rootProps := propsFromDoc(translated.Course)
		if style, ok := source.Props["customStyle"]; ok {
			rootProps["customStyle"] = style
		}
		if variables, ok := source.Props["themeVariables"]; ok {
			rootProps["themeVariables"] = variables
		}
		rootProps["_hasPreview"] = false

		root := &content.Record{
			TenantID:  source.TenantID,
			Kind:      content.KindCourse,
			CreatedBy: userID,
			Props:     rootProps,
		}
		if err := creator.Create(ctx, root); err != nil {
			return err
		}
		newCourseID = root.ID
		idMap[source.ID] = newCourseID

		// 2. Config singleton, retargeted to the new language.
		config := recordFromDoc(translated.Config, content.KindConfig, source.TenantID, newCourseID, userID, idMap)
		oldConfigID := config.ID
		config.ID = ""
		config.Props["_defaultLanguage"] = targetLang
		config.Props["_defaultDirection"] = direction
		if err := creator.Create(ctx, config); err != nil {
			return err
		}
		idMap[oldConfigID] = config.ID

		// 3. The content tree, parents before children.
		sections := []struct {
			kind content.Kind
			docs []content.Document
		}{
			{content.KindContentObject, translated.ContentObjects},
			{content.KindArticle, translated.Articles},
			{content.KindBlock, translated.Blocks},
			{content.KindComponent, translated.Components},
		}
		for _, section := range sections {
			records := make([]*content.Record, 0, len(section.docs))
			for _, doc := range section.docs {
				records = append(records, recordFromDoc(doc, section.kind, source.TenantID, newCourseID, userID, nil))
			}
			if section.kind == content.KindContentObject {
				records = content.SortForCreation(records)
			}
			for _, record := range records {
				oldID := record.ID
				record.ID = ""
				record.ParentID = idMap[record.ParentID]
				if err := creator.Create(ctx, record); err != nil {
					return err
				}
				idMap[oldID] = record.ID
			}
		}

		return content.RewriteStartIDs(ctx, tx, newCourseID, source.Props, idMap)
	})
	if err != nil {
		return "", err
	}

	if _, err := service.assets.CloneCourseAssets(ctx, source.CourseID, newCourseID, userID, idMap); err != nil {
		return "", fmt.Errorf("translate: failed to clone course assets: %w", err)
	}

	return newCourseID, nil
}

// docID reads the structural identifier out of a document.
func docID(doc content.Document) string {
	id, _ := doc["_id"].(string)
	return id
}

// propsFromDoc strips the structural keys from a document, leaving the
// property bag to persist.
func propsFromDoc(doc content.Document) content.Document {
	props := doc.Clone()
	if props == nil {
		props = content.Document{}
	}
	for _, key := range structuralKeys {
		delete(props, key)
	}
	return props
}

// recordFromDoc lifts a serialized document back into a typed record. The
// parent reference is remapped through idMap when one is supplied.
func recordFromDoc(doc content.Document, kind content.Kind, tenantID, courseID, userID string, idMap map[string]string) *content.Record {
	record := &content.Record{
		ID:        docID(doc),
		TenantID:  tenantID,
		CourseID:  courseID,
		Kind:      kind,
		CreatedBy: userID,
		Props:     propsFromDoc(doc),
	}
	if parentID, ok := doc["_parentId"].(string); ok {
		record.ParentID = parentID
		if idMap != nil {
			record.ParentID = idMap[parentID]
		}
	}
	if order, ok := doc["_sortOrder"].(float64); ok {
		record.SortOrder = int(order)
	}
	return record
}

// toolError interprets the builder's stdout/stderr/exit contract for the
// export and import runs.
func toolError(stage string, result publish.ExitResult) error {
	if result.Err != nil {
		message := stage + " failed"
		if fatal := publish.ExtractFatalError(result.Stdout); fatal != "" {
			message += ": " + fatal
		}
		return apperr.BuildTool(message, result.Err)
	}
	if result.Stderr != "" {
		return apperr.BuildTool(stage+" reported errors: "+result.Stderr, nil)
	}
	return nil
}
