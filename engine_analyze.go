package namewrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// classify computes the vulnerability of a wrapped node from live registrar,
// registry, and record state. Checks run in precedence order: the node's own
// expiry, then registrant standing for direct children of the reserved
// top-level name, then each ancestor's registry control and fuse state,
// walking upward. The first failing check wins and names the node it failed
// at. Safe reports a zero vulnerable node.
func (e *Engine) classify(ctx context.Context, id node.ID, rec *record.Record) (Vulnerability, node.ID, error) {
	labels, err := node.DecodeLabels(rec.Name)
	if err != nil {
		return 0, node.ID{}, err
	}
	if len(labels) == 0 {
		return 0, node.ID{}, fmt.Errorf("%w: empty name", node.ErrMalformedName)
	}
	if err := e.checkDepth(labels); err != nil {
		return 0, node.ID{}, err
	}

	// ids[i] is the node named by labels[i:]; the final entry is the root.
	ids := make([]node.ID, len(labels)+1)
	ids[len(labels)] = node.Root
	for i := len(labels) - 1; i >= 0; i-- {
		child, err := node.Subnode(ids[i+1], labels[i])
		if err != nil {
			return 0, node.ID{}, err
		}
		ids[i] = child
	}
	if ids[0] != id {
		return 0, node.ID{}, fmt.Errorf("%w: stored name does not hash to node %s", record.ErrCorruptRecord, id)
	}

	now := e.now()
	cur := rec

	for i := 0; i < len(labels); i++ {
		n := ids[i]

		if ids[i+1] == e.tldNode {
			// Direct child of the reserved top-level name: expiry and
			// registrant standing come from the registrar, read live.
			lh, err := node.HashLabel(labels[i])
			if err != nil {
				return 0, node.ID{}, err
			}
			live, err := e.registrar.NameExpires(ctx, lh)
			if err != nil {
				return 0, node.ID{}, fmt.Errorf("registrar expiry lookup: %w", err)
			}
			if live == 0 || now > live+e.graceSeconds() {
				return VulnerabilityExpired, n, nil
			}
			registrant, err := e.registrar.RegistrantOf(ctx, lh)
			if err != nil {
				return 0, node.ID{}, fmt.Errorf("registrant lookup: %w", err)
			}
			if registrant != e.self {
				return VulnerabilityRegistrant, n, nil
			}
			return VulnerabilitySafe, node.ID{}, nil
		}

		if cur != nil && cur.Expiry != 0 && now > cur.Expiry {
			return VulnerabilityExpired, n, nil
		}

		parent := ids[i+1]
		parentOwner, err := e.registry.Owner(ctx, parent)
		if err != nil {
			return 0, node.ID{}, fmt.Errorf("registry owner lookup: %w", err)
		}
		if parentOwner != e.self {
			return VulnerabilityController, parent, nil
		}

		parentRec, err := e.records.Get(ctx, parent)
		if err != nil {
			if errors.Is(err, record.ErrNotFound) {
				return VulnerabilityFuses, parent, nil
			}
			return 0, node.ID{}, err
		}
		if !parentRec.Fuses.Has(fuses.ParentCannotControl) {
			return VulnerabilityFuses, parent, nil
		}

		cur = parentRec
	}

	return VulnerabilitySafe, node.ID{}, nil
}
