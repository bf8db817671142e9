package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/nutriplan/backend/internal/domain"
)

// planInstructions is the fixed system instruction for plan generation. The
// model proposes foods and gram quantities only; all macro math happens here
// against the reference table.
const planInstructions = `Você é um planejador de dieta focado em alimentos comuns no Brasil.
Você NÃO deve calcular macros nem calorias. O backend calcula macros/calorias usando a tabela TACO.
Seu trabalho: montar um plano alimentar com alimentos + quantidades em gramas.

REGRAS
1) Responda APENAS com JSON válido (sem texto extra, sem markdown, sem crases).
2) Use SOMENTE o schema definido abaixo. Não crie campos fora do schema.
3) Quantidades sempre em gramas (inteiro). Água em mililitros (inteiro).
4) Use nomes bem "matcháveis" com TACO: comuns + preparo simples.
  Bons: "arroz branco cozido", "feijao carioca cozido", "frango grelhado",
        "ovo cozido", "banana", "aveia em flocos", "leite desnatado".
  Evite: marcas, receitas complexas, nomes muito vagos, adjetivos demais.
5) Respeite alergias/intolerâncias/exclusões do pedido e do perfil.
6) Se faltar informação, faça suposições razoáveis e registre em "assumptions".
7) Não inclua suplementos/medicamentos. Não inclua álcool.

MEAL KEYS permitidas: "cafe", "almoco", "lanche", "jantar", "ceia"

SCHEMA (JSON):
{
  "days": number,
  "assumptions": string[],
  "plan": [
    {
      "day": number,
      "waterMlTotal": number,
      "meals": [
        {
          "meal": "cafe" | "almoco" | "lanche" | "jantar" | "ceia",
          "title": string,
          "foods": [
            { "name": string, "grams": number }
          ]
        }
      ]
    }
  ]
}`

// strictJSONReminder is appended to the user prompt on the retry attempt
const strictJSONReminder = "\n\nIMPORTANTE: Responda APENAS com JSON válido no schema. Sem texto extra."

// buildUserPrompt serializes the profile, the request config and the user's
// free-text notes verbatim into the generation prompt.
func buildUserPrompt(profile *domain.UserProfile, config json.RawMessage, notes string) string {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		profileJSON = []byte("null")
	}

	configJSON := []byte("null")
	if len(config) > 0 {
		var pretty interface{}
		if err := json.Unmarshal(config, &pretty); err == nil {
			if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
				configJSON = out
			}
		}
	}

	notesJSON := []byte("null")
	if notes != "" {
		if out, err := json.Marshal(notes); err == nil {
			notesJSON = out
		}
	}

	return fmt.Sprintf(`DADOS DO PERFIL:
%s

CONFIG DO PEDIDO:
%s

NOTAS DO USUÁRIO:
%s

TAREFA:
- Gere o plano baseado nos dados acima.
- Responda SOMENTE JSON no schema definido.`, profileJSON, configJSON, notesJSON)
}
