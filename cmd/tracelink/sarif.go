package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime"

	"tracelink/internal/chain"
	"tracelink/internal/report"
)

// SARIF 2.1.0 schema types
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool        SARIFTool         `json:"tool"`
	Results     []SARIFResult     `json:"results,omitempty"`
	Invocations []SARIFInvocation `json:"invocations,omitempty"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver describes the primary analysis component.
type SARIFDriver struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	InformationURI  string      `json:"informationUri,omitempty"`
	Rules           []SARIFRule `json:"rules,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
}

// SARIFRule describes a rule that detected an issue.
type SARIFRule struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name,omitempty"`
	ShortDescription     *SARIFMessage           `json:"shortDescription,omitempty"`
	FullDescription      *SARIFMessage           `json:"fullDescription,omitempty"`
	DefaultConfiguration *SARIFRuleConfiguration `json:"defaultConfiguration,omitempty"`
	HelpURI              string                  `json:"helpUri,omitempty"`
	Properties           map[string]interface{}  `json:"properties,omitempty"`
}

// SARIFRuleConfiguration describes the default configuration for a rule.
type SARIFRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note, none
}

// SARIFResult represents a single finding.
type SARIFResult struct {
	RuleID              string                 `json:"ruleId"`
	RuleIndex           int                    `json:"ruleIndex,omitempty"`
	Level               string                 `json:"level,omitempty"` // error, warning, note, none
	Message             SARIFMessage           `json:"message"`
	Locations           []SARIFLocation        `json:"locations,omitempty"`
	Fingerprints        map[string]string      `json:"fingerprints,omitempty"`
	PartialFingerprints map[string]string      `json:"partialFingerprints,omitempty"`
	Properties          map[string]interface{} `json:"properties,omitempty"`
}

// SARIFMessage contains text in various formats.
type SARIFMessage struct {
	Text     string `json:"text,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// SARIFLocation describes where a result was found.
type SARIFLocation struct {
	PhysicalLocation *SARIFPhysicalLocation `json:"physicalLocation,omitempty"`
}

// SARIFPhysicalLocation identifies a file and region.
type SARIFPhysicalLocation struct {
	ArtifactLocation *SARIFArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *SARIFRegion           `json:"region,omitempty"`
}

// SARIFArtifactLocation identifies a file.
type SARIFArtifactLocation struct {
	URI       string `json:"uri,omitempty"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

// SARIFRegion identifies a region within a file.
type SARIFRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// SARIFInvocation describes a single invocation of the tool.
type SARIFInvocation struct {
	ExecutionSuccessful bool                   `json:"executionSuccessful"`
	CommandLine         string                 `json:"commandLine,omitempty"`
	WorkingDirectory    *SARIFArtifactLocation `json:"workingDirectory,omitempty"`
	Machine             string                 `json:"machine,omitempty"`
}

// ruleDescriptions summarizes each diagnostic kind for the rule
// metadata consumed by SARIF viewers.
var ruleDescriptions = map[chain.DiagnosticKind]string{
	chain.KindOrphan:                    "A Code, Test or Doc marker has no Spec anchor in its chain",
	chain.KindBrokenReference:           "A marker references a spec file that holds no matching Spec marker",
	chain.KindFormatViolation:           "A marker does not follow the @Kind:IDENTIFIER format",
	chain.KindDuplicateAcrossRoots:      "An identifier appears under more than one workspace root",
	chain.KindUnregisteredIdentifier:    "A root identifier is not registered in the manifest",
	chain.KindUnreferencedManifestEntry: "A manifest identifier has no markers in the tree",
}

// FormatRecordAsSARIF converts a record's diagnostics to SARIF format.
// One rule per diagnostic kind; rule order follows first appearance in
// the sorted diagnostics so output is stable.
func FormatRecordAsSARIF(rec *report.Record) (string, error) {
	ruleMap := make(map[string]SARIFRule)
	ruleIndex := make(map[string]int)

	for _, d := range rec.Diagnostics {
		ruleID := fmt.Sprintf("tracelink/%s", d.Kind)
		if _, exists := ruleMap[ruleID]; !exists {
			rule := SARIFRule{
				ID:   ruleID,
				Name: string(d.Kind),
				ShortDescription: &SARIFMessage{
					Text: ruleDescriptions[d.Kind],
				},
				DefaultConfiguration: &SARIFRuleConfiguration{
					Level: severityToSARIFLevel(d.Severity),
				},
				Properties: map[string]interface{}{
					"tags": []string{"traceability", string(d.Kind)},
				},
			}
			ruleIndex[ruleID] = len(ruleMap)
			ruleMap[ruleID] = rule
		}
	}

	// Convert map to slice in stable order
	rules := make([]SARIFRule, len(ruleMap))
	for id, rule := range ruleMap {
		rules[ruleIndex[id]] = rule
	}

	results := make([]SARIFResult, 0, len(rec.Diagnostics))
	for _, d := range rec.Diagnostics {
		ruleID := fmt.Sprintf("tracelink/%s", d.Kind)

		sarifResult := SARIFResult{
			RuleID:    ruleID,
			RuleIndex: ruleIndex[ruleID],
			Level:     severityToSARIFLevel(d.Severity),
			Message: SARIFMessage{
				Text: d.Message,
			},
			Fingerprints: map[string]string{
				"tracelink/v1": diagnosticFingerprint(d),
			},
		}

		// Manifest-level diagnostics carry no file location.
		if d.File != "" {
			sarifResult.Locations = []SARIFLocation{
				{
					PhysicalLocation: &SARIFPhysicalLocation{
						ArtifactLocation: &SARIFArtifactLocation{
							URI:       d.File,
							URIBaseID: "%SRCROOT%",
						},
						Region: &SARIFRegion{
							StartLine: d.Line,
						},
					},
				},
			}
		}

		if d.Identifier != "" {
			sarifResult.Properties = map[string]interface{}{
				"identifier": d.Identifier,
			}
		}

		results = append(results, sarifResult)
	}

	sarifReport := SARIFReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []SARIFRun{
			{
				Tool: SARIFTool{
					Driver: SARIFDriver{
						Name:            rec.Tool.Name,
						Version:         rec.Tool.Version,
						SemanticVersion: rec.Tool.Version,
						InformationURI:  "https://github.com/tracelink/tracelink",
						Rules:           rules,
					},
				},
				Results: results,
				Invocations: []SARIFInvocation{
					{
						ExecutionSuccessful: true,
						Machine:             runtime.GOOS + "/" + runtime.GOARCH,
					},
				},
			},
		},
	}

	data, err := json.MarshalIndent(sarifReport, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF: %w", err)
	}
	return string(data), nil
}

// severityToSARIFLevel converts a diagnostic severity to a SARIF level.
func severityToSARIFLevel(s chain.Severity) string {
	switch s {
	case chain.SeverityError:
		return "error"
	case chain.SeverityWarning:
		return "warning"
	case chain.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}

// diagnosticFingerprint creates a stable fingerprint for deduplication
// across runs. Two runs over the same tree produce the same prints.
func diagnosticFingerprint(d chain.Diagnostic) string {
	data := fmt.Sprintf("%s:%d:%s:%s", d.File, d.Line, d.Identifier, d.Kind)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}
