package savecodec

import (
	"strings"

	"avsave/logging"
	"avsave/types"
)

// Sanity_fix cleans up things the PS3 version of the game chokes on.
// Safe to run any number of times.  Returns a description of each change made.
func Sanity_fix(doc *types.Document) []string {
	fixes := []string{}
	fix := func(what string, args ...any) {
		fixes = append(fixes, what)
		logging.Log.Debug("sanity fix: "+what, logging.Log.Args(args...))
	}

	if profile, ok := doc.FindDescendant(doc.Root, "PlayerProfile"); ok {
		base, has_base := doc.Find(profile, "BaseInfo")
		if has_base {
			if removed, _ := doc.DelAttr(base, "RecoveryBits"); removed {
				fix("removed BaseInfo RecoveryBits")
			}
		}
		if options, ok := doc.Find(profile, "OptionsInfo"); ok {
			if removed, _ := doc.DelAttr(options, "bEntityScanningEnabled"); removed {
				fix("removed OptionsInfo bEntityScanningEnabled")
			}
		}
		if has_base {
			if _, ok := doc.Attr(base, "bEntityScanningEnabled"); !ok {
				doc.SetAttr(base, "bEntityScanningEnabled", "1")
				fix("added BaseInfo bEntityScanningEnabled", "value", "1")
			}
		}
		if recovery, ok := doc.Find(profile, "Possessions_Recovery"); ok {
			if _, ok := doc.Attr(recovery, "RecoveryBits"); !ok {
				doc.SetAttr(recovery, "RecoveryBits", "500")
				fix("added Possessions_Recovery RecoveryBits", "value", "500")
			}
		}
	}

	if metagame, ok := doc.FindDescendant(doc.Root, "Metagame"); ok {
		for _, tag := range []string{"Player0", "Player1"} {
			player, ok := doc.Find(metagame, tag)
			if !ok || !empty_player(doc, player) {
				continue
			}
			doc.Remove(player)
			fix("removed empty Metagame "+tag)
		}
	}

	return fixes
}

// empty_player: no children, and either every attribute is blank,
// or there are at most three attributes, EPs and newEPs among them, both blank.
func empty_player(doc *types.Document, id types.NodeID) bool {
	if len(doc.Children(id)) > 0 {
		return false
	}
	attrs := doc.Attrs(id)
	all_blank := true
	for _, a := range attrs {
		if strings.TrimSpace(a.Value) != "" {
			all_blank = false
			break
		}
	}
	if all_blank {
		return true
	}

	if len(attrs) > 3 {
		return false
	}
	eps, has_eps := doc.Attr(id, "EPs")
	new_eps, has_new_eps := doc.Attr(id, "newEPs")
	if !has_eps || !has_new_eps {
		return false
	}
	return strings.TrimSpace(eps) == "" && strings.TrimSpace(new_eps) == ""
}
