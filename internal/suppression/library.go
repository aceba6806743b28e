package suppression

import (
	"strings"

	"github.com/TobiSchelling/unrestwatch/internal/rules"
)

// LibraryVersion changes whenever a fragment is added, removed, reordered
// or edited. Historical classifications are only comparable within a version.
const LibraryVersion = "1.0.0"

// Bounded gaps: runs of non-period characters, so a match never crosses a
// sentence boundary.
const (
	largeGap  = `[^\.]{0,25}`
	mediumGap = `[^\.]{0,15}`
	smallGap  = `[^\.]{0,10}`
	endGap    = `[^.]*\.`
	startGap  = `\.[^.]*`
)

const policeForces = `(police|security (personnel|forces|services)|officials|authorities)`

func group(alts ...string) string {
	return "(" + strings.Join(alts, "|") + ")"
}

// Confounds match absence, speculation, history or likelihood of violence.
// Every span they match is deleted before violence detection.
var Confounds = rules.Library{
	Name:    "confounds",
	Version: LibraryVersion,
	Fragments: []rules.Fragment{
		{"no_reports", `no` + smallGap + `(reports|security-related)` + smallGap + `(clashes|arrests|police intervention|violence|incidents)`},
		{"in_year", startGap + ` in ` + mediumGap + `\d{4}(?!hrs)` + endGap},
		{"on_date_year", startGap + ` on \d{2} ` + mediumGap + `\d{4}(?!hrs)` + endGap},
		{"earlier_this_year", startGap + `earlier this year` + endGap},
		{"last_year", `\. last year` + endGap},
		{"various_occasions", `\. there have been various occasions` + endGap},
		{"escalate_into", `potential to escalate into` + endGap},
		{"in_recent_years", startGap + `in recent years` + endGap},
		{"only_occasionally", startGap + `only occasionally` + endGap},
		{"likely_disperse", `likely to (disperse|suppress)` + endGap},
		{"several_of_these", `it should be (further )?noted that several of these` + endGap},
		{"incidental_violence", startGap + `incidental` + mediumGap + `violence` + endGap},
		{"rarely_result", `rarely result in` + endGap},
		{"may_use_force", `may use (excessive )?force` + endGap},
		{"past_actions", startGap + `(previous|past) ` + mediumGap + `(protests|demonstrations|rallies|marches)` + endGap},
		{"propensity_to_turn", `(propensity to|may) turn violent` + endGap},
		{"known_to_attack", `have been known to (block|attack)` + endGap},
		{"heightened_potential", `heightened potential for ` + endGap},
		{"generally_peaceful", `(generally|usually) (been )?peaceful` + endGap},
		{"level_of_year", startGap + `level of \d{4}` + endGap},
		{"sporadically_escalated", `sporadically escalated` + endGap},
		{"possibility_of", `possibility of ` + mediumGap},
		{"personnel_should", `personnel should` + endGap},
		{"likely_continue", startGap + `will likely continue`},
		{"likely_be_peaceful", `likely (to )?be peaceful` + endGap},
		{"clashes_possible", `(clashes|crackdowns|confrontations) (between)?( protest)?` + mediumGap + ` are (possible|likely)` + endGap},
		{"likely_dispersed", `likely to be dispersed` + endGap},
		{"potential_clash", `(potential|possible|likely)( of)? clash` + endGap},
		{"no_clash", `no clash` + endGap},
		{"could_involve", `could involve` + endGap},
		{"prepare_for_security", `prepare for (increased|heightened) security` + endGap},
		{"exercise_caution", `exercisecaution` + endGap},
		{"almost_certain", `almost certain` + endGap},
		{"likely_use_force", `(likely|might|can|could) use force` + endGap},
		{"may_use_lethal", `may use( lethal)? force` + endGap},
		{"are_also_possible", startGap + `are( also)? possible`},
		{"could_occur", startGap + `(could|may) occur`},
		{"likely_attempt", `likely attempt` + endGap},
		{"between_protest_possible", `clashes between protest` + mediumGap + `are (possible|likely)` + endGap},
		{"police_typically", policeForces + ` typically` + endGap},
		{"police_may", policeForces + ` (may|could|can)` + endGap},
		{"particularly_if", `particularly (if|should) ` + policeForces + endGap},
		{"police_will_likely", policeForces + ` will (likely|possibly|probably)` + endGap},
		{"not_ruled_out", startGap + `not be ruled out`},
		{"coming_weeks", startGap + `in the coming weeks`},
		{"mainly_if_police", `mainly if ` + policeForces + endGap},
		{"mainly_if_police_sentence", startGap + `mainly if ` + policeForces},
		{"those_planning", `those planning to` + endGap},
		{"could_result_in", `could result in` + endGap},
		{"are_unlikely", startGap + `are unlikely.`},
		{"may_materialize", startGap + `may materialize`},
		{"may_clash", `may clash with` + endGap},
		{"if_police_forcibly", `if ` + policeForces + ` forcibly` + endGap},
		{"especially_if", `especially if` + endGap},
		{"heightened_risk", `heightened risk of` + endGap},
		{"could_resort", `(may|can|could) resort to` + endGap},
		{"police_are_possible", startGap + policeForces + ` are (likely|possible)`},
		{"no_report_incident", ` no report incident` + endGap},
		{"previous_celebrations", `previous celebrations` + endGap},
		{"clashes_between_likely", `clashes between` + mediumGap + `are (likely|possible)`},
		{"likely_to_react", `are likely to react` + endGap},
		{"rival_security", startGap + `between rival security`},
		{"arrest_of_suspect", `(arrest|detain)` + mediumGap + `suspect`},
		{"often_turn_violent", `often turn violent` + endGap},
		{"travel_hazardous", startGap + `travel hazardous`},
		{"high_propensity", `high propensity to` + endGap},
		{"delays_to_travel", startGap + `delays to travel`},
		{"elevated_threat", `(elevated)? threat( of)?` + endGap},
		{"it_is_likely", `it is( highly)? (likely|possible)` + endGap},
		{"could_elicit", `(might|can|could|may) elicit` + endGap},
		{"clashes_may", `(clashes|crackdowns|confrontations) (may|can|could|might) ` + endGap},
		{"suspect_arrest", `suspect` + mediumGap + `(arrest|detain)`},
		{"blast", `(the blast|explosion|bomb)` + endGap},
	},
}

const police = `(police|security|law enforcement (officials|officers))`

var (
	actors = strings.Join([]string{
		`protest[eo]r`, `demonstrator`, `activist`, `supporter`, `worker`,
		`people`, `(?<!p)resident`, `student`, `youth`, `teacher`, `farmer`,
		`villager`, `lawyer`, `separatist`, `member`, `migrant`,
		`women`, `participant`, `miner`, `crowd`,
	}, "|")
	actorsOrPolice = actors + "|" + smallGap + police
	actorsOrPerson = actors + `|person(?!nel)`

	actions = strings.Join([]string{
		`(?<!by )protest`, `demonstration`, `rall(y|ies)`, `(?<!by )riot`,
		`march`, `gathering`, `sit[^.]{0,3}in`,
	}, "|")

	equipment = strings.Join([]string{
		`tear gas`, `water cannon`, `baton`, `live (ammunition|rounds)`,
		`pepper spray`, `rubber bullet`, `electroshock weapon`,
		`(flash|concussion|stun)[^.]{0,3}(bang|grenade)`,
	}, "|")
)

const arrest = `(arrest|detain)`

// Violence requires an actor or action co-occurring with a suppression
// indicator within a bounded distance.
var Violence = rules.Library{
	Name:    "violence",
	Version: LibraryVersion,
	Fragments: []rules.Fragment{
		{"police_equipment", equipment},
		{"stone_at_police", `(stone|rock|brick|projectile)` + mediumGap + `at` + smallGap + police},
		{"running_battle", `running battle`},
		{"disperse", `disperse` + largeGap + group(actorsOrPolice, actions)},
		{"break_up", `(break|broke) up` + mediumGap + group(actions)},
		{"clash_police", `(clash|scuffle)` + mediumGap + `(between)?` + mediumGap + police},
		{"police_clash", police + largeGap + `(clash|scuffle)`},
		{"arrested_actor", arrest + largeGap + group(actorsOrPerson)},
		{"actor_arrested", group(actorsOrPerson) + largeGap + arrest},
		{"arrested_number", arrest + largeGap + `\d{1,4}(?! on )(?! between)`},
		{"number_arrested", `(?<!on )(?<!between )\d{1,4}` + largeGap + arrest},
		{"opened_fire", police + smallGap + `opened fire`},
		{"police_brutality", police + smallGap + `brutality`},
		{"brutality_police", `brutality` + smallGap + police},
		{"police_crackdown", police + largeGap + `crackdown`},
		{"crackdown_police", `crackdown` + largeGap + police},
		{"crackdown_on_actor", `crackdown` + largeGap + group(actors, actions)},
		{"actor_crackdown", group(actors, actions) + largeGap + `crackdown`},
		{"government_crackdown", `government` + largeGap + `crackdown`},
		{"confront_between", `confront` + smallGap + `between` + group(actors) + mediumGap + police},
		{"confront_police", `confront` + mediumGap + police},
		{"police_prevented", police + mediumGap + `(prevent|block)` + mediumGap + group(actions)},
		{"prevented_by_police", group(actions) + mediumGap + `(prevent|block)` + mediumGap + police},
		{"injured_police", `injured` + mediumGap + police},
		{"police_injured", police + mediumGap + `injured`},
		{"disbanded", `disbanded` + mediumGap + police},
		{"actors_attack_police", group(actors) + mediumGap + `attack` + mediumGap + police},
		{"arrested_dozens", arrest + largeGap + `(dozens|tens|hundreds|thousands)`},
		{"dozens_arrested", `(dozens|tens|hundreds|thousands)` + mediumGap + arrest},
	},
}
