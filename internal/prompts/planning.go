package prompts

// Prompt IDs used by the planning pipeline.
const (
	PromptStructureGeneration = "structure_generation"
	PromptStructureRefinement = "structure_refinement"
)

const structureGenerationV1 = `You are a senior software architect. Given a project profile and an
architecture decision (pattern, layers, module placements, naming
convention), propose a concrete directory and file structure.

Rules:
- Every module in the placements must get at least one directory.
- Every path must live under the root path {{root_path}}.
- Follow the naming convention exactly: {{naming_convention}}.
- Every directory should contain at least one file.

Respond with a single JSON object and nothing else:
{
  "directories": [{"path": "...", "description": "...", "module_number": 1}],
  "files": [{"path": "...", "filename": "...", "file_type": "source",
             "language": "...", "description": "...", "purpose": "...",
             "priority": "high", "module_number": 1}],
  "shared_modules": ["..."],
  "architecture_notes": "..."
}`

const structureRefinementV1 = `You are a senior software architect reviewing a proposed directory
structure. The structure has specific quality issues listed below. Produce
a corrected, complete replacement structure that fixes exactly those
issues while keeping everything that is already correct.

Do not remove modules. Keep every path under {{root_path}}. Follow the
naming convention: {{naming_convention}}.

Respond with a single JSON object in the same shape as the original
structure (directories, files, shared_modules, architecture_notes) and
nothing else.`

// registerDefaults loads the built-in planning prompts into a registry.
func registerDefaults(r *Registry) {
	r.Register(&Prompt{
		ID:          PromptStructureGeneration,
		Version:     PromptV1,
		Content:     structureGenerationV1,
		Description: "Generates a directory/file structure from an architecture decision",
	})
	r.Register(&Prompt{
		ID:          PromptStructureRefinement,
		Version:     PromptV1,
		Content:     structureRefinementV1,
		Description: "Regenerates a structure fixing specific evaluator issues",
	})
}
