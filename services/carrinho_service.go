package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/utils"
)

// Modos de submissao do carrinho.
const (
	// ModoParcial: cada AOCS por contrato e atomica isoladamente; uma
	// falha em um contrato nao desfaz as AOCS ja criadas para outros.
	ModoParcial = "parcial"
	// ModoAtomico: todas as AOCS do carrinho em uma unica transacao;
	// qualquer falha desfaz tudo.
	ModoAtomico = "atomico"
)

// ItemCarrinho e uma linha do carrinho do cliente. O carrinho e apenas
// uma sugestao de interface: todo saldo e revalidado aqui no servidor,
// independente do que o cliente acreditava ter disponivel.
type ItemCarrinho struct {
	ItemContratoID uint
	Quantidade     decimal.Decimal
}

// Carrinho e uma submissao multi-contrato: dados mestres compartilhados,
// um numero de AOCS por contrato e as linhas de todos os contratos.
type Carrinho struct {
	Dados       AocsDados
	NumerosAocs map[uint]string // numero_aocs por id de contrato
	Itens       []ItemCarrinho
	Modo        string
}

// ResultadoContrato reporta, por contrato, a AOCS criada ou a falha,
// para que o chamador repita apenas os contratos que falharam.
type ResultadoContrato struct {
	ContratoID uint         `json:"id_contrato"`
	Sucesso    bool         `json:"sucesso"`
	Aocs       *models.Aocs `json:"aocs,omitempty"`
	Erro       string       `json:"erro,omitempty"`
	err        error
}

// Err expoe o erro original do contrato (nil em caso de sucesso).
func (r ResultadoContrato) Err() error {
	return r.err
}

// CarrinhoService transforma um carrinho multi-contrato em uma sequencia
// de criacoes de AOCS, uma por contrato, em ordem crescente de id.
type CarrinhoService struct {
	db   *gorm.DB
	aocs *AocsService
}

func NewCarrinhoService(db *gorm.DB) *CarrinhoService {
	return &CarrinhoService{db: db, aocs: NewAocsService(db)}
}

// Submeter processa o carrinho no modo pedido. No modo parcial o erro
// retornado e sempre nil salvo validacao global; as falhas por contrato
// ficam nos resultados. No modo atomico um erro indica que nada foi
// persistido.
func (s *CarrinhoService) Submeter(carrinho Carrinho) ([]ResultadoContrato, error) {
	modo := carrinho.Modo
	if modo == "" {
		modo = ModoParcial
	}
	if modo != ModoParcial && modo != ModoAtomico {
		return nil, fmt.Errorf("%w: modo de submissao desconhecido %q", ErrValidacao, carrinho.Modo)
	}
	if len(carrinho.Itens) == 0 {
		return nil, fmt.Errorf("%w: carrinho vazio", ErrValidacao)
	}

	grupos, err := s.agruparPorContrato(carrinho.Itens)
	if err != nil {
		return nil, err
	}

	contratos := make([]uint, 0, len(grupos))
	for cid := range grupos {
		contratos = append(contratos, cid)
	}
	sort.Slice(contratos, func(i, j int) bool { return contratos[i] < contratos[j] })

	for _, cid := range contratos {
		if carrinho.NumerosAocs[cid] == "" {
			return nil, fmt.Errorf("%w: numero_aocs ausente para o contrato %d", ErrValidacao, cid)
		}
	}

	if modo == ModoAtomico {
		return s.submeterAtomico(carrinho, contratos, grupos)
	}
	return s.submeterParcial(carrinho, contratos, grupos), nil
}

func (s *CarrinhoService) submeterParcial(carrinho Carrinho, contratos []uint, grupos map[uint][]LinhaPedido) []ResultadoContrato {
	resultados := make([]ResultadoContrato, 0, len(contratos))
	for _, cid := range contratos {
		dados := carrinho.Dados
		dados.NumeroAocs = carrinho.NumerosAocs[cid]

		aocs, err := s.aocs.CriarAocs(dados, grupos[cid])
		if err != nil {
			utils.ErrorLogger.Printf("Carrinho: falha na AOCS do contrato %d: %v", cid, err)
			resultados = append(resultados, ResultadoContrato{ContratoID: cid, Erro: err.Error(), err: err})
			continue
		}
		resultados = append(resultados, ResultadoContrato{ContratoID: cid, Sucesso: true, Aocs: aocs})
	}

	utils.InfoLogger.Printf("Carrinho submetido (parcial): %d contrato(s)", len(contratos))
	return resultados
}

func (s *CarrinhoService) submeterAtomico(carrinho Carrinho, contratos []uint, grupos map[uint][]LinhaPedido) ([]ResultadoContrato, error) {
	var resultados []ResultadoContrato
	err := comRetryConflito(func() error {
		resultados = resultados[:0]
		return s.db.Transaction(func(tx *gorm.DB) error {
			for _, cid := range contratos {
				dados := carrinho.Dados
				dados.NumeroAocs = carrinho.NumerosAocs[cid]

				aocs, err := s.aocs.CriarAocsTx(tx, dados, grupos[cid])
				if err != nil {
					resultados = append(resultados, ResultadoContrato{ContratoID: cid, Erro: err.Error(), err: err})
					// Desfaz as AOCS dos contratos anteriores tambem.
					return err
				}
				resultados = append(resultados, ResultadoContrato{ContratoID: cid, Sucesso: true, Aocs: aocs})
			}
			return nil
		})
	})
	if err != nil {
		utils.ErrorLogger.Printf("Carrinho (atomico) desfeito: %v", err)
		return resultados, err
	}

	utils.InfoLogger.Printf("Carrinho submetido (atomico): %d contrato(s)", len(contratos))
	return resultados, nil
}

// agruparPorContrato resolve cada item do carrinho para o seu contrato.
// Itens repetidos no carrinho somam as quantidades em uma unica linha.
func (s *CarrinhoService) agruparPorContrato(itens []ItemCarrinho) (map[uint][]LinhaPedido, error) {
	ids := make([]uint, 0, len(itens))
	for _, it := range itens {
		if !it.Quantidade.GreaterThan(decimal.Zero) {
			return nil, &ErrQuantidadeInvalida{ItemContratoID: it.ItemContratoID, Quantidade: it.Quantidade}
		}
		ids = append(ids, it.ItemContratoID)
	}

	var registros []models.ItemContrato
	if err := s.db.Where("id IN ?", ids).Find(&registros).Error; err != nil {
		return nil, err
	}
	contratoPorItem := make(map[uint]uint, len(registros))
	for _, r := range registros {
		contratoPorItem[r.ID] = r.ContratoID
	}

	grupos := make(map[uint][]LinhaPedido)
	for _, it := range itens {
		cid, ok := contratoPorItem[it.ItemContratoID]
		if !ok {
			return nil, &ErrNaoEncontrado{Recurso: "item de contrato", ID: it.ItemContratoID}
		}

		linhas := grupos[cid]
		somado := false
		for i := range linhas {
			if linhas[i].ItemContratoID == it.ItemContratoID {
				linhas[i].QuantidadePedida = linhas[i].QuantidadePedida.Add(it.Quantidade)
				somado = true
				break
			}
		}
		if !somado {
			linhas = append(linhas, LinhaPedido{ItemContratoID: it.ItemContratoID, QuantidadePedida: it.Quantidade})
		}
		grupos[cid] = linhas
	}

	return grupos, nil
}
